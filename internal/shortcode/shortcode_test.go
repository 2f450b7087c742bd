package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	assert.Len(t, Alphabet, 31)
	for _, c := range "0O1IL" {
		assert.NotContains(t, Alphabet, string(c))
	}
}

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		assert.Len(t, code, Length)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q in %q", c, code)
		}
	}
}

func TestGenerateCoversAlphabet(t *testing.T) {
	seen := make(map[rune]bool)
	for i := 0; i < 2000; i++ {
		for _, c := range Generate() {
			seen[c] = true
		}
	}
	// 12000 uniform draws across 31 symbols miss one with probability
	// far below anything a test run will ever see.
	for _, c := range Alphabet {
		assert.True(t, seen[c], "symbol %q never drawn", c)
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seen[Generate()] = true
	}
	// 1000 draws from ~887M combinations should essentially never repeat,
	// let alone collapse to a handful of values.
	assert.Greater(t, len(seen), 990)
}
