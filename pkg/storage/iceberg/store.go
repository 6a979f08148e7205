// Package iceberg adapts an apache/iceberg-go FileIO so any warehouse the
// Iceberg library can reach (local, S3, GCS, Azure, in-memory) can serve as
// the cleanup capability.
package iceberg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	icebergio "github.com/apache/iceberg-go/io"
	"gocloud.dev/gcerrors"

	"github.com/marmos91/lakecleaner/pkg/storage"
)

// Store wraps an icebergio.IO.
type Store struct {
	fio icebergio.IO
}

// New wraps fio.
func New(fio icebergio.IO) *Store {
	return &Store{fio: fio}
}

// NewLocal wraps the Iceberg local filesystem IO.
func NewLocal() *Store {
	return New(icebergio.LocalFS{})
}

// NewFromLocation loads the Iceberg IO implementation matching location's
// scheme, configured by the catalog-style props (e.g. "s3.region").
func NewFromLocation(ctx context.Context, props map[string]string, location string) (*Store, error) {
	fio, err := icebergio.LoadFS(ctx, props, location)
	if err != nil {
		return nil, fmt.Errorf("load iceberg file io for %q: %w", location, err)
	}
	return New(fio), nil
}

// Type implements storage.Typed.
func (s *Store) Type() string {
	return "iceberg"
}

// Exists implements storage.FileIO by opening the file. Iceberg's IO has no
// stat call, so existence is observed through Open.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if path == "" {
		return false, fmt.Errorf("%w: empty path", storage.ErrInvalidPath)
	}

	f, err := s.fio.Open(path)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("iceberg open %q: %w", path, err)
	}
	_ = f.Close()
	return true, nil
}

// Delete implements storage.FileIO. A missing file is treated as deleted.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: empty path", storage.ErrInvalidPath)
	}

	if err := s.fio.Remove(path); err != nil && !isNotExist(err) {
		return fmt.Errorf("iceberg remove %q: %w", path, err)
	}
	return nil
}

// isNotExist reports a missing file for both IO families: LocalFS returns
// fs errors, the blob-backed IOs (s3, gs, mem, azure) return gocloud errors.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || gcerrors.Code(err) == gcerrors.NotFound
}

var _ storage.FileIO = (*Store)(nil)
