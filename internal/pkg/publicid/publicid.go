package publicid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet for the random part (36 characters: A-Z, 0-9). Uppercase only so
// the id survives case-insensitive channels like support mails.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Prefix marks Codigarte transaction ids. The internal numeric id is never
// exposed; this is the only reference users and support staff ever see.
const Prefix = "CDG"

// RandomLength is the number of random characters after the prefix.
const RandomLength = 7

// New creates a public transaction id: "CDG" plus 7 secure random
// uppercase-alphanumeric characters.
func New() (string, error) {
	suffix, err := randomSuffix(RandomLength)
	if err != nil {
		return "", err
	}
	return Prefix + suffix, nil
}

// Valid reports whether s has the expected shape of a public id.
func Valid(s string) bool {
	if len(s) != len(Prefix)+RandomLength {
		return false
	}
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	for i := len(Prefix); i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) == -1 {
			return false
		}
	}
	return true
}

func randomSuffix(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 252 is the largest multiple of 36 below 256.
	const maxRandomByte = 252

	out := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			out[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(out), nil
}
