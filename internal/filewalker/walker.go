package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists the database file types picked up by Walk.
var SupportedExtensions = map[string]bool{
	".ids": true,
}

// Walker finds hardware ID databases under a directory.
type Walker struct {
	extensions map[string]bool
}

// NewWalker creates a Walker for the supported extensions.
func NewWalker() *Walker {
	return &Walker{extensions: SupportedExtensions}
}

// FileEntry represents a discovered database ready for parsing.
type FileEntry struct {
	Path string
	Size int64
}

// Walk discovers all supported files under root, in lexical path order.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !w.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error reading file info")
			return nil
		}
		entries = append(entries, FileEntry{Path: path, Size: fi.Size()})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered databases")
	return entries, nil
}
