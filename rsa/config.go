package rsa

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/rphln/ufv-discrete-mathematics-rsa/primality"
)

var (
	// LowerBound is the smallest prime candidate, 2^15.
	LowerBound = big.NewInt(1 << 15)

	// UpperBound is floor((2^63)^(1/4)), so n = p*q stays far below 63 bits.
	UpperBound = new(big.Int).Sqrt(new(big.Int).Sqrt(new(big.Int).Lsh(big.NewInt(1), 63)))
)

const (
	MinExponent = 2
	MaxExponent = 1 << 16
)

type Config struct {
	Lower, Upper *big.Int

	// Public exponents are drawn from [MinExponent, MaxExponent].
	MinExponent, MaxExponent int64

	TestType  primality.TestType
	Witnesses int

	// MaxAttempts caps both the prime sampling and the exponent search.
	MaxAttempts int

	Random io.Reader
	Logger zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Lower:       LowerBound,
		Upper:       UpperBound,
		MinExponent: MinExponent,
		MaxExponent: MaxExponent,
		TestType:    primality.TestFermat,
		Witnesses:   primality.DefaultWitnesses,
		MaxAttempts: primality.DefaultMaxAttempts,
		Random:      rand.Reader,
		Logger:      zerolog.Nop(),
	}
}
