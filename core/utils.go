package core

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	digits       = "0123456789"
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	specialChars = "!@#$%^&*"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

func randChoice(set string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return set[n.Int64()]
}

// GenerateOTP generates a random numeric one-time code of the given length.
func GenerateOTP(length int) string {
	otp := make([]byte, length)
	for i := range otp {
		otp[i] = randChoice(digits)
	}
	return string(otp)
}

// RandomPassword generates a secure random password containing at least one
// uppercase letter, one lowercase letter, one digit and one special character.
func RandomPassword(length int) string {
	if length < 8 {
		length = 8
	}
	alphabet := lowerLetters + upperLetters + digits + specialChars

	pwd := make([]byte, 0, length)
	pwd = append(pwd,
		randChoice(upperLetters),
		randChoice(lowerLetters),
		randChoice(digits),
		randChoice(specialChars),
	)
	for len(pwd) < length {
		pwd = append(pwd, randChoice(alphabet))
	}
	// shuffle to avoid a predictable prefix
	for i := len(pwd) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			panic(err)
		}
		j := n.Int64()
		pwd[i], pwd[j] = pwd[j], pwd[i]
	}
	return string(pwd)
}

// NewCustomID returns a human-facing identifier of the form PREFIX-XXXXXXXX,
// with a fixed-length alphanumeric suffix derived from a random UUID.
// It is exposed in API lookups in place of the internal primary key.
func NewCustomID(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + "-" + suffix
}
