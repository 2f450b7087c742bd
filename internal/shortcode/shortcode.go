// Package shortcode generates human-enterable bin codes. Codes are printed on
// physical labels, so the alphabet drops characters that are easy to misread
// (0/O, 1/I/L). Generated codes are not unique by construction: the caller
// persists them under a unique constraint and retries on conflict.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet is the 31-symbol set codes are drawn from.
const Alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Length of a generated code. 31^6 is roughly 887 million combinations.
const Length = 6

// MaxAttempts bounds the persist-and-retry protocol. Exhausting it is
// treated as a fatal anomaly rather than a retryable condition.
const MaxAttempts = 10

// Generate returns one random candidate code. Symbols are drawn uniformly;
// reducing a raw byte modulo the alphabet size would skew toward its first
// eight symbols.
func Generate() string {
	size := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			// crypto/rand never fails on supported platforms.
			panic(fmt.Sprintf("shortcode: read random: %v", err))
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}
