package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkFindsDatabases(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"pci.ids", "sub/usb.IDS", "sub/readme.txt", "notes"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	}

	entries, err := NewWalker().Walk(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(root, "pci.ids"), entries[0].Path)
	assert.Equal(t, filepath.Join(root, "sub", "usb.IDS"), entries[1].Path)
	assert.Equal(t, int64(2), entries[0].Size)
}

func TestWalkRejectsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pci.ids")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewWalker().Walk(path)
	assert.ErrorContains(t, err, "not a directory")

	_, err = NewWalker().Walk(filepath.Join(path, "missing"))
	assert.Error(t, err)
}
