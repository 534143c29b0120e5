package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"hwids/internal/parser"
	"hwids/internal/worker"
)

// Target binds an exporter to the file it writes.
type Target struct {
	Exporter Exporter
	Path     string
}

// Artifact is a rendered artifact waiting to be written.
type Artifact struct {
	Name string
	Path string
	Data []byte
}

// Run renders every target in parallel. It returns either all artifacts or
// the first error; nothing is written to disk.
func Run(ctx context.Context, res *parser.ParseResult, targets []Target, workers int) ([]Artifact, error) {
	pool := worker.NewPool[Target, Artifact](workers,
		func(ctx context.Context, t Target) (Artifact, error) {
			if err := ctx.Err(); err != nil {
				return Artifact{}, err
			}
			data, err := t.Exporter.Export(res)
			if err != nil {
				return Artifact{}, fmt.Errorf("export %s: %w", t.Exporter.Name(), err)
			}
			return Artifact{Name: t.Exporter.Name(), Path: t.Path, Data: data}, nil
		},
	).FailFast()

	tasks := pool.Execute(ctx, targets)
	if err := worker.FirstError(ctx, tasks); err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, len(tasks))
	for i, t := range tasks {
		artifacts[i] = t.Result
	}
	return artifacts, nil
}

// WriteAll writes every artifact to a temporary file beside its target and
// renames them into place only once all writes succeeded. If a rename fails,
// targets already replaced are restored from their backups, or removed when
// they did not exist before.
func WriteAll(artifacts []Artifact) error {
	temps := make([]string, 0, len(artifacts))
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for _, a := range artifacts {
		dir := filepath.Dir(a.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			cleanup()
			return fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".*.tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("create temp file for %s: %w", a.Path, err)
		}
		temps = append(temps, f.Name())
		if _, err := f.Write(a.Data); err != nil {
			f.Close()
			cleanup()
			return fmt.Errorf("write %s: %w", a.Path, err)
		}
		if err := f.Close(); err != nil {
			cleanup()
			return fmt.Errorf("close %s: %w", a.Path, err)
		}
		if err := os.Chmod(f.Name(), 0644); err != nil {
			cleanup()
			return fmt.Errorf("chmod %s: %w", a.Path, err)
		}
	}

	// backups[i] is empty when artifacts[i].Path did not exist.
	backups := make([]string, 0, len(artifacts))
	rollback := func() {
		for i, backup := range backups {
			path := artifacts[i].Path
			if backup == "" {
				_ = os.Remove(path)
				continue
			}
			if err := os.Rename(backup, path); err != nil {
				log.Error().Err(err).Str("path", path).Str("backup", backup).Msg("Failed to restore artifact")
			}
		}
		cleanup()
	}

	for i, a := range artifacts {
		backup, err := backupTarget(a.Path, temps[i])
		if err != nil {
			rollback()
			return err
		}
		if err := os.Rename(temps[i], a.Path); err != nil {
			if backup != "" {
				_ = os.Rename(backup, a.Path)
			}
			rollback()
			return fmt.Errorf("rename %s: %w", a.Path, err)
		}
		backups = append(backups, backup)
	}

	for i, a := range artifacts {
		if backups[i] != "" {
			_ = os.Remove(backups[i])
		}
		log.Info().Str("artifact", a.Name).Str("path", a.Path).Int("bytes", len(a.Data)).Msg("Wrote artifact")
	}
	return nil
}

// backupTarget moves an existing regular file at path aside and returns the
// backup's name, or "" when there is nothing to keep.
func backupTarget(path, temp string) (string, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	backup := strings.TrimSuffix(temp, ".tmp") + ".bak"
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return backup, nil
}
