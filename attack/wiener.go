package attack

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
	"github.com/rphln/ufv-discrete-mathematics-rsa/rsa"
)

// Convergent is one k/d approximation of e/n.
type Convergent struct {
	Numerator   *big.Int // k
	Denominator *big.Int // d
}

// Wiener recovers d from the continued fraction expansion of e/n. It only
// succeeds when d < n^(1/4)/3, which random exponents from rsa.KeyGenerator
// practically never satisfy.
type Wiener struct {
	mathService *arith.MathService
	logger      zerolog.Logger
}

func NewWiener(ms *arith.MathService, logger zerolog.Logger) *Wiener {
	return &Wiener{mathService: ms, logger: logger}
}

// Convergents returns the convergents of the continued fraction of e/n.
func (w *Wiener) Convergents(e, n *big.Int) []Convergent {
	quotients := w.mathService.ContinuedFraction(e, n)
	convergents := make([]Convergent, 0, len(quotients))

	// previous two convergents, seeded with 0/1 and 1/0
	prev := Convergent{Numerator: big.NewInt(0), Denominator: big.NewInt(1)}
	last := Convergent{Numerator: big.NewInt(1), Denominator: big.NewInt(0)}

	for _, a := range quotients {
		next := Convergent{
			Numerator:   new(big.Int).Add(new(big.Int).Mul(a, last.Numerator), prev.Numerator),
			Denominator: new(big.Int).Add(new(big.Int).Mul(a, last.Denominator), prev.Denominator),
		}
		convergents = append(convergents, next)
		prev, last = last, next
	}
	return convergents
}

func (w *Wiener) Recover(key *rsa.PublicKey) (*Result, error) {
	convergents := w.Convergents(key.E, key.N)

	for _, cf := range convergents {
		k := cf.Numerator
		d := cf.Denominator

		if k.Sign() == 0 {
			continue
		}

		// φ = (e*d - 1) / k must be an integer
		numerator := new(big.Int).Mul(key.E, d)
		numerator.Sub(numerator, one)

		phi, rem := new(big.Int).DivMod(numerator, k, new(big.Int))
		if rem.Sign() != 0 {
			continue
		}

		// p and q are the roots of x^2 - (n - φ + 1)x + n
		b := new(big.Int).Sub(key.N, phi)
		b.Add(b, one)

		discriminant := new(big.Int).Mul(b, b)
		discriminant.Sub(discriminant, new(big.Int).Lsh(key.N, 2))
		if discriminant.Sign() < 0 {
			continue
		}

		sqrtD := new(big.Int).Sqrt(discriminant)
		if new(big.Int).Mul(sqrtD, sqrtD).Cmp(discriminant) != 0 {
			continue
		}

		q := new(big.Int).Add(b, sqrtD)
		q.Rsh(q, 1)

		p := new(big.Int).Sub(b, sqrtD)
		p.Rsh(p, 1)

		if new(big.Int).Mul(p, q).Cmp(key.N) == 0 {
			w.logger.Debug().
				Stringer("p", p).
				Stringer("q", q).
				Int("convergents", len(convergents)).
				Msg("wiener attack succeeded")
			return &Result{P: p, Q: q, Phi: phi, D: new(big.Int).Set(d)}, nil
		}
	}

	return nil, errors.Wrapf(ErrFactorNotFound, "none of the %d convergents of e/n factors n = %s", len(convergents), key.N)
}
