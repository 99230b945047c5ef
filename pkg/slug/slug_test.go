package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme", "acme"},
		{"spaces collapse to dashes", "Test Community", "test-community"},
		{"runs of separators collapse", "a  --  b", "a-b"},
		{"leading and trailing separators trim", "  Edge Case!  ", "edge-case"},
		{"digits survive", "Team 42", "team-42"},
		{"unicode punctuation drops", "café ☕ club", "caf-club"},
		{"empty input", "", ""},
		{"only separators", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Make(tc.in))
		})
	}
}

func TestMakeIsDeterministic(t *testing.T) {
	assert.Equal(t, Make("Some Name"), Make("some   NAME"))
}
