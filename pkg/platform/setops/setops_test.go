package setops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedupe([]string{"a", "b", "a", " b ", ""}))
	assert.Empty(t, Dedupe(nil))
}

func TestDedupeLower(t *testing.T) {
	assert.Equal(t, []string{"acme", "other"}, DedupeLower([]string{"Acme", "ACME", "other"}))
}

func TestAddToSet(t *testing.T) {
	base := []string{"a", "b"}
	got := AddToSet(base, "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	// The input slice is untouched.
	assert.Equal(t, []string{"a", "b"}, base)
}

func TestPull(t *testing.T) {
	base := []string{"a", "b", "a"}
	assert.Equal(t, []string{"b"}, Pull(base, "a"))
	assert.Equal(t, []string{"a", "b", "a"}, base)
	assert.Equal(t, []string{"a", "b", "a"}, Pull(base, "missing"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a"}, "a"))
	assert.False(t, Contains(nil, "a"))
}
