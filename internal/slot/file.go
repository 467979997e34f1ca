package slot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// File stores the slot value in <dir>/<key>.json. Put writes a temporary
// file and renames it over the old one, so readers never see a partial value.
type File struct {
	key  string
	path string
}

// NewFile returns a file-backed slot. The directory is created on first Put.
func NewFile(dir, key string) *File {
	return &File{key: key, path: filepath.Join(dir, key+".json")}
}

// Key implements Slot.
func (f *File) Key() string { return f.key }

// Path returns the file holding the value.
func (f *File) Path() string { return f.path }

// Get implements Slot.
func (f *File) Get(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("slot: read %q: %w", f.path, err)
	}
	return data, nil
}

// Put implements Slot.
func (f *File) Put(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("slot: create dir: %w", err)
	}
	if err := renameio.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("slot: write %q: %w", f.path, err)
	}
	return nil
}
