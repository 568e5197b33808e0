package rsa

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

const (
	// PadCharacter fills the last block of a message.
	PadCharacter = 'Z'

	alphabetSize = 'Z' - 'A' + 1
	radix        = 100
)

var (
	ErrModulusTooSmall  = errors.New("rsa: modulus too small to hold a single character")
	ErrInvalidCharacter = errors.New("rsa: message must consist of uppercase letters A-Z")
)

// BlockWidth returns the number of characters packed into one block for the
// modulus n: the largest k with sum_{i<k} 25*100^i <= n, so that the block
// "ZZ...Z" of width k never exceeds n.
func BlockWidth(n *big.Int) int {
	maxDigit := big.NewInt(alphabetSize - 1)
	sum := new(big.Int)
	power := big.NewInt(1)

	width := 0
	for {
		sum.Add(sum, new(big.Int).Mul(maxDigit, power))
		if sum.Cmp(n) > 0 {
			return width
		}
		width++
		power.Mul(power, big.NewInt(radix))
	}
}

// Pad right-pads message with PadCharacter to a multiple of width.
func Pad(message string, width int) string {
	if width <= 0 || len(message)%width == 0 {
		return message
	}
	return message + strings.Repeat(string(PadCharacter), width-len(message)%width)
}

func packBlock(chunk string) (*big.Int, error) {
	block := new(big.Int)
	for i := 0; i < len(chunk); i++ {
		c := chunk[i]
		if c < 'A' || c > 'Z' {
			return nil, errors.Wrapf(ErrInvalidCharacter, "got %q", c)
		}
		block.Mul(block, big.NewInt(radix))
		block.Add(block, big.NewInt(int64(c-'A')))
	}
	return block, nil
}

// unpackBlock extracts width base-100 digits, least significant first, and
// writes them back in reading order.
func unpackBlock(block *big.Int, width int) []rune {
	digits := make([]rune, width)
	rest := new(big.Int).Set(block)
	digit := new(big.Int)

	for i := width - 1; i >= 0; i-- {
		rest.DivMod(rest, big.NewInt(radix), digit)
		digits[i] = rune('A' + digit.Int64())
	}
	return digits
}
