package rsa

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
)

// Cipher encrypts uppercase text block by block.
type Cipher struct {
	mathService *arith.MathService
}

func NewCipher(ms *arith.MathService) *Cipher {
	return &Cipher{mathService: ms}
}

// Encode pads message to the block width of key.N and returns one
// ciphertext integer per block, in message order.
func (c *Cipher) Encode(message string, key *PublicKey) ([]*big.Int, error) {
	width := BlockWidth(key.N)
	if width == 0 {
		return nil, errors.Wrapf(ErrModulusTooSmall, "n = %s", key.N)
	}

	padded := Pad(message, width)
	ciphertext := make([]*big.Int, 0, len(padded)/width)

	for i := 0; i < len(padded); i += width {
		block, err := packBlock(padded[i : i+width])
		if err != nil {
			return nil, errors.Wrapf(err, "block %d", i/width)
		}
		ciphertext = append(ciphertext, c.Encrypt(block, key))
	}
	return ciphertext, nil
}

// Decode reverses Encode. Padding is kept.
func (c *Cipher) Decode(ciphertext []*big.Int, key *PrivateKey) (string, error) {
	width := BlockWidth(key.N)
	if width == 0 {
		return "", errors.Wrapf(ErrModulusTooSmall, "n = %s", key.N)
	}

	var message strings.Builder
	message.Grow(len(ciphertext) * width)

	for _, block := range ciphertext {
		for _, r := range unpackBlock(c.Decrypt(block, key), width) {
			message.WriteRune(r)
		}
	}
	return message.String(), nil
}

// Encrypt computes m^e mod n.
func (c *Cipher) Encrypt(m *big.Int, key *PublicKey) *big.Int {
	return c.mathService.ModPow(m, key.E, key.N)
}

// Decrypt computes c^d mod n.
func (c *Cipher) Decrypt(ct *big.Int, key *PrivateKey) *big.Int {
	return c.mathService.ModPow(ct, key.D, key.N)
}
