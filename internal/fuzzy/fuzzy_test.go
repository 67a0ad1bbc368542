package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("abc", "abc"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))

	// Two matching runes out of seven total.
	assert.InDelta(t, 4.0/7.0, Ratio("abcd", "bcx"), 1e-9)
}

func TestClosestMatch(t *testing.T) {
	got, ok := ClosestMatch("aple", []string{"apple", "grape", "melon"}, 0.8)
	assert.True(t, ok)
	assert.Equal(t, "apple", got)

	_, ok = ClosestMatch("zzz", []string{"apple", "grape"}, 0.8)
	assert.False(t, ok)
}

func TestClosestMatchCutoffRelaxed(t *testing.T) {
	// A single-letter target barely resembles anything; only a relaxed
	// cutoff lets it through.
	_, ok := ClosestMatch("bee", []string{"b"}, 0.8)
	assert.False(t, ok)

	got, ok := ClosestMatch("bee", []string{"b"}, 0.5)
	assert.True(t, ok)
	assert.Equal(t, "b", got)
}
