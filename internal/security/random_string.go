package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// TemporaryPasswordAlphabet leaves out characters that are easy to misread.
const TemporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const (
	minTemporaryPasswordLength = 12
	maxTemporaryPasswordDraws  = 32
)

var (
	errNegativeLength  = errors.New("length must be non-negative")
	errEmptyAlphabet   = errors.New("alphabet must not be empty")
	errPasswordClasses = errors.New("could not draw a password containing every character class")
)

// RandomString draws length characters uniformly from alphabet using crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if alphabet == "" {
		return "", errEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	var builder strings.Builder
	builder.Grow(length)
	for builder.Len() < length {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[position.Int64()])
	}
	return builder.String(), nil
}

// TemporaryPassword returns a one-time password with upper case, lower case
// and digit characters. Lengths below 12 are raised to 12.
func TemporaryPassword(length int) (string, error) {
	if length < minTemporaryPasswordLength {
		length = minTemporaryPasswordLength
	}
	for draw := 0; draw < maxTemporaryPasswordDraws; draw++ {
		candidate, err := RandomString(length, TemporaryPasswordAlphabet)
		if err != nil {
			return "", err
		}
		if hasEveryClass(candidate) {
			return candidate, nil
		}
	}
	return "", errPasswordClasses
}

func hasEveryClass(value string) bool {
	var upper, lower, digit bool
	for _, char := range value {
		switch {
		case char >= 'A' && char <= 'Z':
			upper = true
		case char >= 'a' && char <= 'z':
			lower = true
		case char >= '0' && char <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}
