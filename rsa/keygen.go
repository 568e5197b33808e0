// Package rsa implements textbook RSA over small moduli: key generation and
// a block cipher mapping uppercase text to base-100 integers below n.
//
// There is no padding and the moduli fit in 32 bits; keys produced here are
// meant to be broken by package attack.
package rsa

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
	"github.com/rphln/ufv-discrete-mathematics-rsa/primality"
)

var one = big.NewInt(1)

type PublicKey struct {
	N *big.Int
	E *big.Int
}

type PrivateKey struct {
	N *big.Int
	D *big.Int
}

type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey

	P, Q *big.Int
	Phi  *big.Int
}

type KeyGenerator struct {
	mathService *arith.MathService
	sampler     *primality.Sampler
	config      Config
	logger      zerolog.Logger
}

func NewKeyGenerator(config Config, ms *arith.MathService) *KeyGenerator {
	defaults := DefaultConfig()
	if config.Lower == nil {
		config.Lower = defaults.Lower
	}
	if config.Upper == nil {
		config.Upper = defaults.Upper
	}
	if config.MinExponent == 0 && config.MaxExponent == 0 {
		config.MinExponent, config.MaxExponent = defaults.MinExponent, defaults.MaxExponent
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Random == nil {
		config.Random = defaults.Random
	}

	sampler := primality.NewSampler(
		primality.New(config.TestType, config.Witnesses, ms),
		primality.WithRandom(config.Random),
		primality.WithMaxAttempts(config.MaxAttempts),
		primality.WithLogger(config.Logger),
	)

	return &KeyGenerator{
		mathService: ms,
		sampler:     sampler,
		config:      config,
		logger:      config.Logger,
	}
}

// Totient returns (p-1)(q-1).
func Totient(p, q *big.Int) *big.Int {
	return new(big.Int).Mul(
		new(big.Int).Sub(p, one),
		new(big.Int).Sub(q, one),
	)
}

// GenerateKeyPair samples p and q, picks a random public exponent coprime
// with φ(n) and derives the private exponent from it.
//
// p == q is not rejected; the resulting key is degenerate and only logged.
func (kg *KeyGenerator) GenerateKeyPair() (*KeyPair, error) {
	p, err := kg.sampler.SamplePrime(kg.config.Lower, kg.config.Upper)
	if err != nil {
		return nil, errors.Wrap(err, "sample p")
	}

	q, err := kg.sampler.SamplePrime(kg.config.Lower, kg.config.Upper)
	if err != nil {
		return nil, errors.Wrap(err, "sample q")
	}

	if p.Cmp(q) == 0 {
		kg.logger.Warn().Stringer("p", p).Msg("sampled equal primes, key is degenerate")
	}

	n := new(big.Int).Mul(p, q)
	phi := Totient(p, q)

	e, err := kg.chooseExponent(phi)
	if err != nil {
		return nil, err
	}

	d, err := kg.mathService.ModInverse(e, phi)
	if err != nil {
		return nil, errors.Wrap(err, "derive private exponent")
	}

	kg.logger.Debug().
		Stringer("p", p).
		Stringer("q", q).
		Stringer("n", n).
		Stringer("e", e).
		Msg("generated key pair")

	return &KeyPair{
		Public:  &PublicKey{N: n, E: e},
		Private: &PrivateKey{N: new(big.Int).Set(n), D: d},
		P:       p,
		Q:       q,
		Phi:     phi,
	}, nil
}

// chooseExponent draws e until 1 < e < φ and gcd(e, φ) = 1.
func (kg *KeyGenerator) chooseExponent(phi *big.Int) (*big.Int, error) {
	lower := big.NewInt(kg.config.MinExponent)
	upper := big.NewInt(kg.config.MaxExponent)

	for attempt := 1; attempt <= kg.config.MaxAttempts; attempt++ {
		e, err := primality.Uniform(kg.config.Random, lower, upper)
		if err != nil {
			return nil, errors.Wrap(err, "draw public exponent")
		}

		if e.Cmp(one) <= 0 || e.Cmp(phi) >= 0 {
			continue
		}
		if arith.IsOne(kg.mathService.GCD(e, phi)) {
			return e, nil
		}
	}

	return nil, errors.Wrapf(primality.ErrRangeExhausted,
		"public exponent in [%s, %s] coprime with %s", lower, upper, phi)
}
