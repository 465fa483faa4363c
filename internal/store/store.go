package store

import (
	"context"
	"errors"

	"github.com/teemow/ohq-bluejeans/internal/backend"
)

var (
	// ErrEmptyKey is returned for an empty record key.
	ErrEmptyKey = errors.New("record key is empty")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Store persists backend metadata records by key.
type Store interface {
	// Get returns the record for key. The boolean is false when no record exists.
	Get(ctx context.Context, key string) (backend.Metadata, bool, error)

	// Put creates or replaces the record for key.
	Put(ctx context.Context, key string, md backend.Metadata) error

	// Delete removes the record for key. Deleting a missing record is not an error.
	Delete(ctx context.Context, key string) error
}

// Locker serializes work on one record key.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned function
	// releases the lock.
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}
