package rsa

import (
	"bytes"
	"math/big"
	"math/rand"
	"strings"
	"testing"

	"github.com/cznic/mathutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
	"github.com/rphln/ufv-discrete-mathematics-rsa/primality"
)

func textbookKeys() (*PublicKey, *PrivateKey) {
	n := big.NewInt(3233)
	return &PublicKey{N: n, E: big.NewInt(17)}, &PrivateKey{N: n, D: big.NewInt(2753)}
}

func seededGenerator(seed int64) *KeyGenerator {
	config := DefaultConfig()
	config.Random = rand.New(rand.NewSource(seed))
	return NewKeyGenerator(config, arith.NewMathService())
}

func TestUpperBound(t *testing.T) {
	assert.Equal(t, int64(55108), UpperBound.Int64())
	assert.Equal(t, int64(32768), LowerBound.Int64())
}

func TestGenerateKeyPairInvariants(t *testing.T) {
	ms := arith.NewMathService()

	for seed := int64(0); seed < 10; seed++ {
		pair, err := seededGenerator(seed).GenerateKeyPair()
		require.NoError(t, err)

		for _, p := range []*big.Int{pair.P, pair.Q} {
			assert.True(t, p.Cmp(LowerBound) >= 0 && p.Cmp(UpperBound) <= 0)
			assert.True(t, isFermatPrime(p), "%s is not prime", p)
		}

		n := new(big.Int).Mul(pair.P, pair.Q)
		assert.Equal(t, 0, n.Cmp(pair.Public.N))
		assert.Equal(t, 0, n.Cmp(pair.Private.N))
		assert.Less(t, n.BitLen(), 33)

		assert.Equal(t, 0, Totient(pair.P, pair.Q).Cmp(pair.Phi))

		e := pair.Public.E
		assert.True(t, e.Cmp(big.NewInt(1)) > 0 && e.Cmp(pair.Phi) < 0)
		assert.True(t, e.Int64() <= MaxExponent)
		assert.Equal(t, int64(1), ms.GCD(e, pair.Phi).Int64())

		d := pair.Private.D
		assert.True(t, d.Sign() >= 0 && d.Cmp(pair.Phi) < 0)
		ed := new(big.Int).Mul(e, d)
		assert.Equal(t, int64(1), ed.Mod(ed, pair.Phi).Int64())
	}
}

func TestGenerateKeyPairWithEachTest(t *testing.T) {
	for _, tt := range []primality.TestType{primality.TestFermat, primality.TestSolovayStrassen, primality.TestMillerRabin} {
		config := DefaultConfig()
		config.TestType = tt
		config.Random = rand.New(rand.NewSource(11))

		pair, err := NewKeyGenerator(config, arith.NewMathService()).GenerateKeyPair()
		require.NoError(t, err, tt.String())
		assert.True(t, isFermatPrime(pair.P), tt.String())
		assert.True(t, isFermatPrime(pair.Q), tt.String())
	}
}

func TestGenerateKeyPairRangeExhausted(t *testing.T) {
	config := DefaultConfig()
	config.Lower = big.NewInt(24)
	config.Upper = big.NewInt(28)
	config.MaxAttempts = 20
	config.Random = rand.New(rand.NewSource(1))

	_, err := NewKeyGenerator(config, arith.NewMathService()).GenerateKeyPair()
	assert.ErrorIs(t, err, primality.ErrRangeExhausted)
}

func TestGenerateKeyPairNoCoprimeExponent(t *testing.T) {
	config := DefaultConfig()
	// p = q = 3 gives φ = 4; only even exponents are available.
	config.Lower = big.NewInt(3)
	config.Upper = big.NewInt(3)
	config.MinExponent = 2
	config.MaxExponent = 2
	config.MaxAttempts = 10

	_, err := NewKeyGenerator(config, arith.NewMathService()).GenerateKeyPair()
	assert.ErrorIs(t, err, primality.ErrRangeExhausted)
}

func TestGenerateKeyPairAllowsEqualPrimes(t *testing.T) {
	var logs bytes.Buffer

	config := DefaultConfig()
	config.Lower = big.NewInt(32771)
	config.Upper = big.NewInt(32771)
	config.Random = rand.New(rand.NewSource(7))
	config.Logger = zerolog.New(&logs)

	pair, err := NewKeyGenerator(config, arith.NewMathService()).GenerateKeyPair()
	require.NoError(t, err)

	assert.Equal(t, int64(32771), pair.P.Int64())
	assert.Equal(t, 0, pair.P.Cmp(pair.Q))
	assert.Equal(t, int64(32771*32771), pair.Public.N.Int64())
	assert.Equal(t, int64(32770*32770), pair.Phi.Int64())

	ed := new(big.Int).Mul(pair.Public.E, pair.Private.D)
	assert.Equal(t, int64(1), ed.Mod(ed, pair.Phi).Int64())

	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "sampled equal primes")
}

func TestBlockWidth(t *testing.T) {
	cases := []struct {
		n     int64
		width int
	}{
		{0, 0},
		{24, 0},
		{25, 1},
		{2524, 1},
		{2525, 2},
		{3233, 2},
		{252524, 2},
		{252525, 3},
		{55108 * 55108, 5},
	}

	for _, c := range cases {
		assert.Equal(t, c.width, BlockWidth(big.NewInt(c.n)), "n = %d", c.n)
	}
}

func TestPad(t *testing.T) {
	assert.Equal(t, "HELLOZ", Pad("HELLO", 2))
	assert.Equal(t, "HELLO", Pad("HELLO", 5))
	assert.Equal(t, "HELLOZZZ", Pad("HELLO", 4))
	assert.Equal(t, "", Pad("", 3))
	assert.Equal(t, "ABC", Pad("ABC", 0))
}

func TestTextbookScenario(t *testing.T) {
	pub, priv := textbookKeys()
	c := NewCipher(arith.NewMathService())

	// "A" is padded to "AZ", block 25.
	ct, err := c.Encode("A", pub)
	require.NoError(t, err)
	assert.Equal(t, []int64{2211}, ints(ct))

	ct, err = c.Encode("AA", pub)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, ints(ct))

	plain, err := c.Decode([]*big.Int{big.NewInt(0)}, priv)
	require.NoError(t, err)
	assert.Equal(t, "AA", plain)

	ct, err = c.Encode("HELLO", pub)
	require.NoError(t, err)
	assert.Equal(t, []int64{328, 474, 1826}, ints(ct))

	plain, err = c.Decode(ct, priv)
	require.NoError(t, err)
	assert.Equal(t, "HELLOZ", plain)
}

func TestRoundTripGeneratedKeys(t *testing.T) {
	c := NewCipher(arith.NewMathService())
	r := rand.New(rand.NewSource(5))

	for seed := int64(0); seed < 5; seed++ {
		pair, err := seededGenerator(100 + seed).GenerateKeyPair()
		require.NoError(t, err)
		if pair.P.Cmp(pair.Q) == 0 {
			continue
		}
		width := BlockWidth(pair.Public.N)

		for i := 0; i < 20; i++ {
			message := randomMessage(r, r.Intn(40))

			ct, err := c.Encode(message, pair.Public)
			require.NoError(t, err)
			for _, block := range ct {
				require.True(t, block.Sign() >= 0 && block.Cmp(pair.Public.N) < 0)
			}

			plain, err := c.Decode(ct, pair.Private)
			require.NoError(t, err)
			require.Equal(t, Pad(message, width), plain)
		}
	}
}

func TestEncodeDecodeEncodeIsStable(t *testing.T) {
	c := NewCipher(arith.NewMathService())
	pair, err := seededGenerator(42).GenerateKeyPair()
	require.NoError(t, err)
	if pair.P.Cmp(pair.Q) == 0 {
		t.Skip("degenerate key with p == q")
	}

	first, err := c.Encode("DISCRETEMATH", pair.Public)
	require.NoError(t, err)

	plain, err := c.Decode(first, pair.Private)
	require.NoError(t, err)

	second, err := c.Encode(plain, pair.Public)
	require.NoError(t, err)
	assert.Equal(t, ints(first), ints(second))
}

func TestEncodeErrors(t *testing.T) {
	c := NewCipher(arith.NewMathService())
	pub, _ := textbookKeys()

	_, err := c.Encode("Hello", pub)
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = c.Encode("HI THERE", pub)
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = c.Encode("A", &PublicKey{N: big.NewInt(21), E: big.NewInt(5)})
	assert.ErrorIs(t, err, ErrModulusTooSmall)

	_, err = c.Decode([]*big.Int{big.NewInt(1)}, &PrivateKey{N: big.NewInt(21), D: big.NewInt(5)})
	assert.ErrorIs(t, err, ErrModulusTooSmall)
}

func TestEncodeEmptyMessage(t *testing.T) {
	c := NewCipher(arith.NewMathService())
	pub, priv := textbookKeys()

	ct, err := c.Encode("", pub)
	require.NoError(t, err)
	assert.Empty(t, ct)

	plain, err := c.Decode(ct, priv)
	require.NoError(t, err)
	assert.Equal(t, "", plain)
}

func TestDecodeWithWrongKeyStillProducesText(t *testing.T) {
	c := NewCipher(arith.NewMathService())
	pub, _ := textbookKeys()

	ct, err := c.Encode("HELLO", pub)
	require.NoError(t, err)

	plain, err := c.Decode(ct, &PrivateKey{N: pub.N, D: big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, 6, len([]rune(plain)))
	assert.NotEqual(t, "HELLOZ", plain)
}

// isFermatPrime accepts primes and the Carmichael numbers in the default
// sampling range, which the Fermat test cannot tell apart from primes.
func isFermatPrime(p *big.Int) bool {
	switch p.Int64() {
	case 41041, 46657, 52633:
		return true
	}
	return mathutil.IsPrime(uint32(p.Uint64()))
}

func randomMessage(r *rand.Rand, length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(byte('A' + r.Intn(26)))
	}
	return sb.String()
}

func ints(xs []*big.Int) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = x.Int64()
	}
	return out
}
