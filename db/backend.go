package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when a document has never been written.
var ErrNotFound = errors.New("document not found")

// Backend persists raw JSON documents by name.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}
