package primality

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts bounds the rejection loops. Primes around 2^15 have a
// density of roughly 1/10, so well-formed ranges never get close to it.
const DefaultMaxAttempts = 10000

var (
	ErrRangeExhausted = errors.New("primality: no acceptable value found within the attempt limit")
	ErrInvalidRange   = errors.New("primality: lower bound exceeds upper bound")
)

// Sampler draws probable primes by rejection sampling.
type Sampler struct {
	test        Test
	random      io.Reader
	maxAttempts int
	logger      zerolog.Logger
}

type SamplerOption func(*Sampler)

// WithRandom replaces crypto/rand as the source of candidates.
func WithRandom(r io.Reader) SamplerOption {
	return func(s *Sampler) { s.random = r }
}

func WithMaxAttempts(n int) SamplerOption {
	return func(s *Sampler) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithLogger(logger zerolog.Logger) SamplerOption {
	return func(s *Sampler) { s.logger = logger }
}

func NewSampler(test Test, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		test:        test,
		random:      rand.Reader,
		maxAttempts: DefaultMaxAttempts,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Uniform returns a uniformly distributed integer in [lower, upper].
func Uniform(r io.Reader, lower, upper *big.Int) (*big.Int, error) {
	if lower.Cmp(upper) > 0 {
		return nil, errors.Wrapf(ErrInvalidRange, "[%s, %s]", lower, upper)
	}

	width := new(big.Int).Sub(upper, lower)
	width.Add(width, one)

	x, err := rand.Int(r, width)
	if err != nil {
		return nil, errors.Wrap(err, "draw random integer")
	}
	return x.Add(x, lower), nil
}

// SamplePrime returns a probable prime p with lower <= p <= upper.
func (s *Sampler) SamplePrime(lower, upper *big.Int) (*big.Int, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		candidate, err := Uniform(s.random, lower, upper)
		if err != nil {
			return nil, err
		}

		if s.test.IsProbablyPrime(candidate) {
			s.logger.Debug().
				Stringer("prime", candidate).
				Int("attempts", attempt).
				Str("test", s.test.Name()).
				Msg("sampled prime")
			return candidate, nil
		}
	}

	return nil, errors.Wrapf(ErrRangeExhausted, "prime in [%s, %s] after %d attempts", lower, upper, s.maxAttempts)
}
