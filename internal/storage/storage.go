// Package storage persists attachment files.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object identifies a stored file. Key is what Delete expects, URL is what
// clients download from.
type Object struct {
	Key string
	URL string
}

// FileStore saves and removes attachment files.
type FileStore interface {
	Save(ctx context.Context, name string, reader io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}
