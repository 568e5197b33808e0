// Package primality implements probabilistic primality tests and a prime
// sampler on top of arith.MathService.
//
// All tests use a deterministic witness set whose size is fixed at
// construction. The Fermat test, which is the default, is fooled by
// Carmichael numbers; below 10,000 these are 561, 1105, 1729, 2465, 2821,
// 6601 and 8911.
package primality

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
)

// DefaultWitnesses is the witness count used when none is configured.
const DefaultWitnesses = 20

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

type Test interface {
	IsProbablyPrime(n *big.Int) bool
	Name() string
}

type TestType int

const (
	TestFermat TestType = iota
	TestSolovayStrassen
	TestMillerRabin
)

var testNames = map[TestType]string{
	TestFermat:          "fermat",
	TestSolovayStrassen: "solovay-strassen",
	TestMillerRabin:     "miller-rabin",
}

func (t TestType) String() string {
	if name, ok := testNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTestType maps a test name as printed by TestType.String back to its type.
func ParseTestType(name string) (TestType, error) {
	for t, n := range testNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, errors.Errorf("primality: unknown test %q", name)
}

// New builds the test of the given type. A non-positive witness count falls
// back to DefaultWitnesses.
func New(testType TestType, witnesses int, ms *arith.MathService) Test {
	if witnesses <= 0 {
		witnesses = DefaultWitnesses
	}

	switch testType {
	case TestSolovayStrassen:
		return NewSolovayStrassenTest(ms, witnesses)
	case TestMillerRabin:
		return NewMillerRabinTest(ms, witnesses)
	default:
		return NewFermatTest(ms, witnesses)
	}
}

type baseTest struct {
	mathService *arith.MathService
	testName    string
	witnesses   int
}

func (bt *baseTest) Name() string {
	return bt.testName
}

// performTest runs iteration for the bases 2..witnesses+1 that are below
// n-1. Even numbers and numbers below 2 are rejected up front.
func (bt *baseTest) performTest(n *big.Int, iteration func(n, a *big.Int) bool) bool {
	if n.Cmp(two) == 0 {
		return true
	}
	if n.Cmp(two) < 0 || n.Bit(0) == 0 {
		return false
	}

	nMinus1 := new(big.Int).Sub(n, one)
	for i := 0; i < bt.witnesses; i++ {
		a := big.NewInt(int64(i + 2))
		if a.Cmp(nMinus1) >= 0 {
			break
		}

		if !iteration(n, a) {
			return false
		}
	}
	return true
}

// FermatTest declares n composite as soon as some witness a in
// [0, witnesses) coprime with n has a^(n-1) mod n != 1.
type FermatTest struct {
	baseTest
}

func NewFermatTest(ms *arith.MathService, witnesses int) *FermatTest {
	return &FermatTest{baseTest{mathService: ms, testName: TestFermat.String(), witnesses: witnesses}}
}

func (ft *FermatTest) IsProbablyPrime(n *big.Int) bool {
	if n.Cmp(two) < 0 {
		return false
	}

	exp := new(big.Int).Sub(n, one)
	for i := 0; i < ft.witnesses; i++ {
		a := big.NewInt(int64(i))
		if !arith.IsOne(ft.mathService.GCD(a, n)) {
			continue
		}

		if !arith.IsOne(ft.mathService.ModPow(a, exp, n)) {
			return false
		}
	}
	return true
}

// SolovayStrassenTest checks Euler's criterion a^((n-1)/2) ≡ (a/n) (mod n).
type SolovayStrassenTest struct {
	baseTest
}

func NewSolovayStrassenTest(ms *arith.MathService, witnesses int) *SolovayStrassenTest {
	return &SolovayStrassenTest{baseTest{mathService: ms, testName: TestSolovayStrassen.String(), witnesses: witnesses}}
}

func (sst *SolovayStrassenTest) IsProbablyPrime(n *big.Int) bool {
	return sst.performTest(n, func(n, a *big.Int) bool {
		jacobi := sst.mathService.JacobiSymbol(a, n)
		exp := new(big.Int).Sub(n, one)
		exp.Rsh(exp, 1)
		result := sst.mathService.ModPow(a, exp, n)

		jacobiMod := big.NewInt(int64(jacobi))
		jacobiMod.Mod(jacobiMod, n)
		return result.Cmp(jacobiMod) == 0
	})
}

// MillerRabinTest is the strong probable prime test.
type MillerRabinTest struct {
	baseTest
}

func NewMillerRabinTest(ms *arith.MathService, witnesses int) *MillerRabinTest {
	return &MillerRabinTest{baseTest{mathService: ms, testName: TestMillerRabin.String(), witnesses: witnesses}}
}

func (mrt *MillerRabinTest) IsProbablyPrime(n *big.Int) bool {
	nMinus1 := new(big.Int).Sub(n, one)

	// n-1 = d * 2^s
	s := 0
	d := new(big.Int).Set(nMinus1)
	for d.Sign() > 0 && d.Bit(0) == 0 {
		s++
		d.Rsh(d, 1)
	}

	return mrt.performTest(n, func(n, a *big.Int) bool {
		x := mrt.mathService.ModPow(a, d, n)
		if arith.IsOne(x) || x.Cmp(nMinus1) == 0 {
			return true
		}

		for i := 0; i < s-1; i++ {
			x = mrt.mathService.ModPow(x, two, n)
			if x.Cmp(nMinus1) == 0 {
				return true
			}
		}
		return false
	})
}
