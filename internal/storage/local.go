package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Local stores files in a directory served by the API under a public prefix.
type Local struct {
	fs     afero.Fs
	dir    string
	prefix string
}

// NewLocal returns a store rooted at dir on fs. Files are exposed as
// prefix/name.
func NewLocal(fs afero.Fs, dir, publicPrefix string) (*Local, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{
		fs:     fs,
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

func (l *Local) Save(ctx context.Context, name string, reader io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if !validKey(name) {
		return Object{}, ErrInvalidKey
	}

	target := filepath.Join(l.dir, name)
	file, err := l.fs.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		_ = l.fs.Remove(target)
		return Object{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		_ = l.fs.Remove(target)
		return Object{}, fmt.Errorf("close %s: %w", name, err)
	}

	return Object{Key: name, URL: path.Join(l.prefix, name)}, nil
}

// Delete is idempotent: removing a missing file succeeds.
func (l *Local) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	err := l.fs.Remove(filepath.Join(l.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}
