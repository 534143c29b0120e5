package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"GeForce RTX 3080 [GA102]", "GA102"},
		{"Simple Device", "Simple Device"},
		{" Leading space kept", " Leading space kept"},
		{"Two [first] and [second]", "first"},
		{"Unclosed [bracket", "Unclosed [bracket"},
		{"Close ] before [open]", "open"},
		{"Empty []", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.raw), "DisplayName(%q)", tt.raw)
	}
}

func TestTokenizeVendor(t *testing.T) {
	f, err := tokenizeVendor("10de  NVIDIA Corporation  ")
	require.NoError(t, err)
	assert.Equal(t, "10de", f.id)
	assert.Equal(t, "NVIDIA Corporation", f.name)

	f, err = tokenizeVendor("1af4 \tRed Hat, Inc.")
	require.NoError(t, err)
	assert.Equal(t, "Red Hat, Inc.", f.name)
}

func TestTokenizeVendorRequiresSpace(t *testing.T) {
	for _, content := range []string{"10de\tNvidia", "10de\tNVIDIA Corporation"} {
		_, err := tokenizeVendor(content)
		assert.ErrorIs(t, err, ErrInvalidID, "%q", content)
	}
}

func TestTokenizeDevice(t *testing.T) {
	f, err := tokenizeDevice("2206  GA102 [GeForce RTX 3080]")
	require.NoError(t, err)
	assert.Equal(t, "2206", f.id)
	assert.Equal(t, " GA102 [GeForce RTX 3080]", f.rawName)
}

func TestTokenizeSubsystem(t *testing.T) {
	f, err := tokenizeSubsystem("1028 0b30  Dell RTX 3080")
	require.NoError(t, err)
	assert.Equal(t, "1028", f.subvendor)
	assert.Equal(t, "0b30", f.subdevice)
	assert.Equal(t, "Dell RTX 3080", f.name)

	_, err = tokenizeSubsystem("1028")
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = tokenizeSubsystem("10x8 0b30  Bad")
	assert.ErrorIs(t, err, ErrInvalidID)
}
