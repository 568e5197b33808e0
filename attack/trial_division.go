// Package attack recovers private exponents from small RSA public keys.
package attack

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
	"github.com/rphln/ufv-discrete-mathematics-rsa/primality"
	"github.com/rphln/ufv-discrete-mathematics-rsa/rsa"
)

// ErrFactorNotFound is returned when the search space holds no usable
// factorization of n.
var ErrFactorNotFound = errors.New("attack: no factor of n found in the search space")

// SearchLimit is the exclusive upper bound of the trial division, 2^32.
var SearchLimit = new(big.Int).Lsh(big.NewInt(1), 32)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Result describes a recovered key.
type Result struct {
	P, Q *big.Int
	Phi  *big.Int
	D    *big.Int
}

// PrivateKey returns the recovered key in the form rsa.Cipher expects.
func (r *Result) PrivateKey(n *big.Int) *rsa.PrivateKey {
	return &rsa.PrivateKey{N: new(big.Int).Set(n), D: new(big.Int).Set(r.D)}
}

type Attack interface {
	Recover(key *rsa.PublicKey) (*Result, error)
}

// TrialDivision finds the smallest prime p in [2, 2^32) dividing n such
// that e is coprime with φ = (p-1)(q-1), q = n/p. Candidates up to isqrt(n)
// are divided directly; the ones above it are the cofactors n/d of the
// divisors d found on the way, tried in ascending order.
type TrialDivision struct {
	mathService *arith.MathService
	test        primality.Test
	logger      zerolog.Logger
}

func NewTrialDivision(ms *arith.MathService, test primality.Test, logger zerolog.Logger) *TrialDivision {
	return &TrialDivision{mathService: ms, test: test, logger: logger}
}

func (td *TrialDivision) Recover(key *rsa.PublicKey) (*Result, error) {
	p, q, phi, err := td.factor(key)
	if err != nil {
		return nil, err
	}

	d, err := td.mathService.ModInverse(key.E, phi)
	if err != nil {
		return nil, errors.Wrap(err, "derive private exponent")
	}

	return &Result{P: p, Q: q, Phi: phi, D: d}, nil
}

func (td *TrialDivision) factor(key *rsa.PublicKey) (*big.Int, *big.Int, *big.Int, error) {
	n := key.N
	if n.Cmp(two) < 0 {
		return nil, nil, nil, errors.Wrapf(ErrFactorNotFound, "n = %s", n)
	}

	limit := new(big.Int).Sqrt(n)
	if limit.Cmp(SearchLimit) >= 0 {
		limit.Sub(SearchLimit, one)
	}

	// divisors of n up to limit, ascending
	var divisors []*big.Int

	rem := new(big.Int)
	for p := big.NewInt(2); p.Cmp(limit) <= 0; p.Add(p, one) {
		q, _ := new(big.Int).DivMod(n, p, rem)
		if rem.Sign() != 0 {
			continue
		}
		divisors = append(divisors, new(big.Int).Set(p))

		if phi, ok := td.accept(key.E, p, q); ok {
			return new(big.Int).Set(p), q, phi, nil
		}
	}

	for i := len(divisors) - 1; i >= 0; i-- {
		q := divisors[i]
		p := new(big.Int).Quo(n, q)
		if p.Cmp(q) <= 0 || p.Cmp(SearchLimit) >= 0 {
			continue
		}

		if phi, ok := td.accept(key.E, p, q); ok {
			return p, q, phi, nil
		}
	}

	return nil, nil, nil, errors.Wrapf(ErrFactorNotFound, "n = %s, searched up to %s", n, limit)
}

// accept reports whether p is a prime factor of n = p*q whose φ makes e
// invertible.
func (td *TrialDivision) accept(e, p, q *big.Int) (*big.Int, bool) {
	if !td.test.IsProbablyPrime(p) {
		return nil, false
	}

	phi := rsa.Totient(p, q)
	if !arith.IsOne(td.mathService.GCD(e, phi)) {
		td.logger.Debug().Stringer("p", p).Stringer("q", q).Msg("factor rejected, e not coprime with φ")
		return nil, false
	}

	td.logger.Debug().Stringer("p", p).Stringer("q", q).Msg("factored modulus")
	return phi, true
}
