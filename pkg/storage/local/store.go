// Package local provides a FileIO over a go-billy filesystem, rooted at a
// base directory for local and mounted warehouses.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/marmos91/lakecleaner/pkg/storage"
)

// Store is a FileIO backed by a billy.Filesystem.
type Store struct {
	fs   billy.Filesystem
	root string
}

// New wraps an existing filesystem. root is the absolute directory the
// filesystem is rooted at; absolute paths under it are translated to relative
// ones. An empty root accepts paths as given.
func New(bfs billy.Filesystem, root string) *Store {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Store{fs: bfs, root: root}
}

// NewOS creates a store rooted at dir on the host filesystem.
func NewOS(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", dir, err)
	}
	return New(osfs.New(abs), abs), nil
}

// Root returns the configured root directory.
func (s *Store) Root() string {
	return s.root
}

// Type implements storage.Typed.
func (s *Store) Type() string {
	return "local"
}

// Exists implements storage.FileIO.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	rel, err := s.resolve(path)
	if err != nil {
		return false, err
	}

	_, err = s.fs.Stat(rel)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case errors.Is(err, billy.ErrCrossedBoundary):
		return false, fmt.Errorf("%w: stat %q: %w", storage.ErrInvalidPath, path, err)
	default:
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
}

// Delete implements storage.FileIO. Removing a missing file succeeds.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if errors.Is(err, billy.ErrCrossedBoundary) {
			return fmt.Errorf("%w: remove %q: %w", storage.ErrInvalidPath, path, err)
		}
		return fmt.Errorf("remove %q: %w", path, err)
	}
	return nil
}

// resolve maps a table path onto the filesystem namespace.
func (s *Store) resolve(path string) (string, error) {
	p := strings.TrimPrefix(path, "file://")
	p = strings.TrimPrefix(p, "file:")
	if p == "" {
		return "", fmt.Errorf("%w: empty path", storage.ErrInvalidPath)
	}

	if s.root == "" || !filepath.IsAbs(p) {
		return p, nil
	}

	rel, err := filepath.Rel(s.root, filepath.Clean(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside %q", storage.ErrInvalidPath, path, s.root)
	}
	return rel, nil
}

var _ storage.FileIO = (*Store)(nil)
