package main

import (
	"crypto/rand"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
)

func main() {
	log.Logger = newLogger(os.Stderr, false)

	if err := newApp(rand.Reader).Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("rsa failed")
	}
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func modulusFlag() cli.Flag {
	return &cli.Uint64Flag{Name: "n", Usage: "RSA modulus", Required: true}
}

// newApp wires the command table. random feeds key generation.
func newApp(random io.Reader) *cli.App {
	r := &runner{
		mathService: arith.NewMathService(),
		random:      random,
		logger:      zerolog.Nop(),
	}

	return &cli.App{
		Name:  "rsa",
		Usage: "Textbook RSA over 32-bit moduli",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug information to stderr",
			},
		},
		Before: func(cCtx *cli.Context) error {
			r.logger = newLogger(cCtx.App.ErrWriter, cCtx.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a key pair",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "test",
						Usage: "Primality test: fermat, solovay-strassen or miller-rabin",
						Value: "fermat",
					},
					&cli.IntFlag{
						Name:  "witnesses",
						Usage: "Number of primality witnesses",
						Value: 20,
					},
				},
				Action: r.action(actionGenerate),
			},
			{
				Name:      "encode",
				Usage:     "Encrypt a message made of uppercase letters",
				ArgsUsage: "WORDS...",
				Flags: []cli.Flag{
					modulusFlag(),
					&cli.Uint64Flag{Name: "x", Usage: "Public exponent e", Required: true},
				},
				Action: r.action(actionEncode),
			},
			{
				Name:      "decode",
				Usage:     "Decrypt a sequence of ciphertext blocks",
				ArgsUsage: "INTEGERS...",
				Flags: []cli.Flag{
					modulusFlag(),
					&cli.Uint64Flag{Name: "x", Usage: "Private exponent d", Required: true},
				},
				Action: r.action(actionDecode),
			},
			{
				Name:  "guess",
				Usage: "Recover the private exponent of a public key",
				Flags: []cli.Flag{
					modulusFlag(),
					&cli.Uint64Flag{Name: "x", Usage: "Public exponent e", Required: true},
					&cli.StringFlag{
						Name:  "method",
						Usage: "Attack: trial or wiener",
						Value: methodTrial,
					},
				},
				Action: r.action(actionGuess),
			},
		},
	}
}
