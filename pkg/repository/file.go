package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// FileSlot stores the blob in a local JSON file
type FileSlot struct {
	path string
}

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// DefaultFilePath returns the history file location under the user data
// directory ($XDG_DATA_HOME or ~/.local/share).
func DefaultFilePath() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", goerr.Wrap(err, "failed to resolve home directory")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "singhoo", StorageKey+".json"), nil
}

func (f *FileSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSlotEmpty
		}
		return nil, goerr.Wrap(err, "failed to read history file", goerr.V("path", f.path))
	}
	return data, nil
}

// Write replaces the file atomically via a temporary file in the same
// directory.
func (f *FileSlot) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return goerr.Wrap(err, "failed to create history directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary history file", goerr.V("dir", dir))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write temporary history file", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary history file", goerr.V("path", tmpName))
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return goerr.Wrap(err, "failed to replace history file", goerr.V("path", f.path))
	}
	return nil
}
