// Package storage defines the file capability cleanup handlers use to check
// and remove table files, and the resolver that supplies it per task.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by backends that report missing files as errors.
	ErrNotFound = errors.New("file not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidPath is returned for paths a backend cannot address.
	ErrInvalidPath = errors.New("invalid path")
)

// FileIO is the minimal file capability needed to delete table content.
//
// Implementations must not retry internally and must tolerate repeated calls
// for the same path, including Delete on a path that no longer exists.
type FileIO interface {
	// Exists reports whether path currently exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes path.
	Delete(ctx context.Context, path string) error
}

// Typed is implemented by backends that report their type for logs and metrics.
type Typed interface {
	Type() string
}

// TypeOf returns the backend type of io, or "unknown".
func TypeOf(io FileIO) string {
	if t, ok := io.(Typed); ok {
		return t.Type()
	}
	return "unknown"
}
