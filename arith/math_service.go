// Package arith holds the number theory the rest of the module is built on:
// modular exponentiation, Euclid's algorithm and the symbols used by the
// primality tests. Everything works on *big.Int so products up to n^2 never
// overflow, whatever the size of the modulus.
package arith

import (
	"math/big"

	"github.com/pkg/errors"
)

// ErrNotInvertible is returned by ModInverse when gcd(a, m) != 1.
var ErrNotInvertible = errors.New("arith: value is not invertible modulo m")

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

type MathService struct{}

func NewMathService() *MathService {
	return &MathService{}
}

// ModPow computes base^exp mod m for exp >= 0 and m > 0 by square-and-multiply
// over the bits of exp, least significant first.
func (ms *MathService) ModPow(base, exp, m *big.Int) *big.Int {
	result := new(big.Int).Mod(one, m)
	b := new(big.Int).Mod(base, m)

	for i := 0; i < exp.BitLen(); i++ {
		if exp.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, m)
		}
		b.Mul(b, b)
		b.Mod(b, m)
	}
	return result
}

// GCD returns gcd(|a|, |b|) by Euclid's algorithm.
func (ms *MathService) GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)

	for y.Sign() != 0 {
		x, y = y, new(big.Int).Mod(x, y)
	}
	return x
}

// ExtendedGCD solves the Bézout identity a*s + b*t = g with g = gcd(|a|, |b|).
// For b == 0 it returns (a, 1, 0); a negative g is flipped together with its
// coefficients so the identity keeps holding.
func (ms *MathService) ExtendedGCD(a, b *big.Int) (*big.Int, *big.Int, *big.Int) {
	if b.Sign() == 0 {
		return normalize(new(big.Int).Set(a), big.NewInt(1), big.NewInt(0))
	}

	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	// r - remainders
	// s - coefficients of a
	// t - coefficients of b

	for r.Sign() != 0 {
		quotient := new(big.Int).Div(oldR, r)
		oldR, r = r, new(big.Int).Sub(oldR, new(big.Int).Mul(quotient, r))
		oldS, s = s, new(big.Int).Sub(oldS, new(big.Int).Mul(quotient, s))
		oldT, t = t, new(big.Int).Sub(oldT, new(big.Int).Mul(quotient, t))
	}

	return normalize(oldR, oldS, oldT)
}

// ContinuedFraction returns the partial quotients [a0; a1, ..., ak] of a/b
// for a >= 0 and b > 0, as produced by Euclid's algorithm.
func (ms *MathService) ContinuedFraction(a, b *big.Int) []*big.Int {
	var quotients []*big.Int

	x, y := new(big.Int).Set(a), new(big.Int).Set(b)
	for y.Sign() != 0 {
		quotient, remainder := new(big.Int).QuoRem(x, y, new(big.Int))
		quotients = append(quotients, quotient)
		x, y = y, remainder
	}
	return quotients
}

func normalize(g, s, t *big.Int) (*big.Int, *big.Int, *big.Int) {
	if g.Sign() < 0 {
		g.Neg(g)
		s.Neg(s)
		t.Neg(t)
	}
	return g, s, t
}

// ModInverse returns the x in [0, m) with a*x ≡ 1 (mod m).
func (ms *MathService) ModInverse(a, m *big.Int) (*big.Int, error) {
	g, x, _ := ms.ExtendedGCD(a, m)
	if g.Cmp(one) != 0 {
		return nil, errors.Wrapf(ErrNotInvertible, "gcd(%s, %s) = %s", a, m, g)
	}

	for x.Sign() < 0 {
		x.Add(x, m)
	}
	return x, nil
}

// LegendreSymbol computes (a/p) for an odd prime p using Euler's criterion.
func (ms *MathService) LegendreSymbol(a, p *big.Int) int {
	if new(big.Int).Mod(a, p).Sign() == 0 {
		return 0
	}
	exp := new(big.Int).Sub(p, one)
	exp.Div(exp, two)
	result := ms.ModPow(a, exp, p)

	if result.Cmp(one) == 0 {
		return 1
	}
	return -1
}

// JacobiSymbol computes (a/n) for odd n > 0.
func (ms *MathService) JacobiSymbol(a, n *big.Int) int {
	if n.Cmp(one) == 0 {
		return 1
	}

	aTemp := new(big.Int).Mod(a, n)
	nTemp := new(big.Int).Set(n)
	result := 1

	for aTemp.Sign() != 0 {
		// factor out powers of two
		for aTemp.Bit(0) == 0 {
			aTemp.Rsh(aTemp, 1)
			nMod8 := nTemp.Bits()[0] & 7
			if nMod8 == 3 || nMod8 == 5 {
				result = -result
			}
		}

		aTemp, nTemp = nTemp, aTemp

		// quadratic reciprocity
		if aTemp.Bits()[0]&3 == 3 && nTemp.Bits()[0]&3 == 3 {
			result = -result
		}

		aTemp.Mod(aTemp, nTemp)
	}

	if nTemp.Cmp(one) == 0 {
		return result
	}
	return 0
}

// IsOne reports whether x == 1.
func IsOne(x *big.Int) bool {
	return x.Cmp(one) == 0
}
