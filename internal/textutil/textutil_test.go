package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHexID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"10de", true},
		{"ABCD", true},
		{"0aF9", true},
		{"10d", false},
		{"10de0", false},
		{"10dg", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHexID(tt.in), "IsHexID(%q)", tt.in)
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "10de", NormalizeID("0x10DE"))
	assert.Equal(t, "10de", NormalizeID(" 10de "))
	assert.Equal(t, "x", NormalizeID("0Xx"))
	assert.Equal(t, "0", NormalizeID("0"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
}

func TestHashStable(t *testing.T) {
	assert.Equal(t, Hash("pci.ids"), Hash("pci.ids"))
	assert.NotEqual(t, Hash("a"), Hash("b"))
	assert.Len(t, Hash(""), 64)
}
