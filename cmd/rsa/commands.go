package main

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/rphln/ufv-discrete-mathematics-rsa/arith"
	"github.com/rphln/ufv-discrete-mathematics-rsa/attack"
	"github.com/rphln/ufv-discrete-mathematics-rsa/primality"
	"github.com/rphln/ufv-discrete-mathematics-rsa/rsa"
)

type action int

const (
	actionGenerate action = iota
	actionEncode
	actionDecode
	actionGuess
)

const (
	methodTrial  = "trial"
	methodWiener = "wiener"
)

// request is a fully validated command line invocation.
type request struct {
	action action

	// n and x are set for every action but generate.
	n, x *big.Int

	message    string
	ciphertext []*big.Int

	test      primality.TestType
	witnesses int
	method    string
}

func parseRequest(a action, cCtx *cli.Context) (*request, error) {
	req := &request{action: a}

	if a == actionGenerate {
		test, err := primality.ParseTestType(cCtx.String("test"))
		if err != nil {
			return nil, err
		}
		req.test = test
		req.witnesses = cCtx.Int("witnesses")
		if req.witnesses <= 0 {
			return nil, errors.New("--witnesses must be positive")
		}
		return req, nil
	}

	for _, name := range []string{"n", "x"} {
		if cCtx.Uint64(name) == 0 {
			return nil, errors.Errorf("the argument --%s must be set", name)
		}
	}
	req.n = new(big.Int).SetUint64(cCtx.Uint64("n"))
	req.x = new(big.Int).SetUint64(cCtx.Uint64("x"))

	switch a {
	case actionEncode:
		req.message = strings.Join(cCtx.Args().Slice(), "")
	case actionDecode:
		for _, arg := range cCtx.Args().Slice() {
			block, ok := new(big.Int).SetString(arg, 10)
			if !ok {
				return nil, errors.Errorf("invalid ciphertext block %q", arg)
			}
			req.ciphertext = append(req.ciphertext, block)
		}
	case actionGuess:
		req.method = cCtx.String("method")
		if req.method != methodTrial && req.method != methodWiener {
			return nil, errors.Errorf("unknown attack method %q", req.method)
		}
	}
	return req, nil
}

type runner struct {
	mathService *arith.MathService
	random      io.Reader
	logger      zerolog.Logger
}

func (r *runner) action(a action) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		req, err := parseRequest(a, cCtx)
		if err != nil {
			return err
		}
		return r.run(req, cCtx.App.Name, cCtx.App.Writer)
	}
}

func (r *runner) run(req *request, name string, out io.Writer) error {
	switch req.action {
	case actionGenerate:
		return r.generate(req, name, out)
	case actionEncode:
		return r.encode(req, out)
	case actionDecode:
		return r.decode(req, out)
	case actionGuess:
		return r.guess(req, out)
	}
	return errors.Errorf("unknown action %d", req.action)
}

func (r *runner) generate(req *request, name string, out io.Writer) error {
	config := rsa.DefaultConfig()
	config.TestType = req.test
	config.Witnesses = req.witnesses
	config.Random = r.random
	config.Logger = r.logger

	pair, err := rsa.NewKeyGenerator(config, r.mathService).GenerateKeyPair()
	if err != nil {
		return errors.Wrap(err, "generate key pair")
	}

	fmt.Fprintf(out, "Public: %s encode --n %s --x %s\n", name, pair.Public.N, pair.Public.E)
	fmt.Fprintf(out, "Private: %s decode --n %s --x %s\n", name, pair.Private.N, pair.Private.D)
	return nil
}

func (r *runner) encode(req *request, out io.Writer) error {
	ciphertext, err := rsa.NewCipher(r.mathService).Encode(req.message, &rsa.PublicKey{N: req.n, E: req.x})
	if err != nil {
		return errors.Wrap(err, "encode")
	}

	blocks := make([]string, len(ciphertext))
	for i, block := range ciphertext {
		blocks[i] = block.String()
	}
	fmt.Fprintln(out, strings.Join(blocks, " "))
	return nil
}

func (r *runner) decode(req *request, out io.Writer) error {
	message, err := rsa.NewCipher(r.mathService).Decode(req.ciphertext, &rsa.PrivateKey{N: req.n, D: req.x})
	if err != nil {
		return errors.Wrap(err, "decode")
	}

	fmt.Fprintln(out, message)
	return nil
}

func (r *runner) guess(req *request, out io.Writer) error {
	var attacker attack.Attack
	switch req.method {
	case methodWiener:
		attacker = attack.NewWiener(r.mathService, r.logger)
	default:
		test := primality.New(primality.TestFermat, primality.DefaultWitnesses, r.mathService)
		attacker = attack.NewTrialDivision(r.mathService, test, r.logger)
	}

	result, err := attacker.Recover(&rsa.PublicKey{N: req.n, E: req.x})
	if err != nil {
		return errors.Wrap(err, "guess")
	}

	r.logger.Debug().
		Stringer("p", result.P).
		Stringer("q", result.Q).
		Str("method", req.method).
		Msg("recovered private key")

	fmt.Fprintln(out, result.D)
	return nil
}
