package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	replaceAttempts = 6
	replacePause    = 250 * time.Millisecond
)

// FileBackend stores each document as <dir>/<name>.json.
type FileBackend struct {
	Dir string
	log *zap.Logger
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string, log *zap.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &FileBackend{Dir: dir, log: log.Named("file")}, nil
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.Dir, name+".json")
}

// Read returns ErrNotFound when the file does not exist.
func (b *FileBackend) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the document through a temp file. When the rename keeps
// failing (a sync client or antivirus holding the target) it removes the old
// file first, retries, and as a last resort writes the target directly.
func (b *FileBackend) Write(_ context.Context, name string, data []byte) error {
	target := b.path(name)
	tmp := fmt.Sprintf("%s.tmp.%d_%d", target, os.Getpid(), time.Now().UnixMilli())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", name, err)
	}

	for i := 0; i < replaceAttempts; i++ {
		err := os.Rename(tmp, target)
		if err == nil {
			return nil
		}
		b.log.Debug("replace failed, retrying", zap.String("document", name), zap.Int("attempt", i+1), zap.Error(err))
		if rmErr := os.Remove(target); rmErr == nil || errors.Is(rmErr, fs.ErrNotExist) {
			if err := os.Rename(tmp, target); err == nil {
				return nil
			}
		}
		time.Sleep(replacePause)
	}

	b.log.Warn("atomic replace exhausted, writing in place", zap.String("document", name))
	defer os.Remove(tmp)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Delete is a no-op for missing files.
func (b *FileBackend) Delete(_ context.Context, name string) error {
	err := os.Remove(b.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
