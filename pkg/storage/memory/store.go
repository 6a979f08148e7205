// Package memory provides an in-memory FileIO, used by tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/lakecleaner/pkg/storage"
)

// FaultFunc decides whether call number n (1-based) for path fails.
type FaultFunc func(path string, n int) error

// Store is an in-memory FileIO that also records how it was called.
type Store struct {
	mu     sync.RWMutex
	files  map[string][]byte
	closed bool

	existsCalls map[string]int
	deleteCalls map[string]int

	existsFault FaultFunc
	deleteFault FaultFunc
}

// New creates an empty store.
func New() *Store {
	return &Store{
		files:       make(map[string][]byte),
		existsCalls: make(map[string]int),
		deleteCalls: make(map[string]int),
	}
}

// Put stores data at path, replacing any previous content.
func (s *Store) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.files[path] = buf
}

// FailExists installs a fault for Exists calls. nil removes it.
func (s *Store) FailExists(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsFault = f
}

// FailDelete installs a fault for Delete calls. nil removes it.
func (s *Store) FailDelete(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteFault = f
}

// Exists implements storage.FileIO.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, storage.ErrStoreClosed
	}

	s.existsCalls[path]++
	if s.existsFault != nil {
		if err := s.existsFault(path, s.existsCalls[path]); err != nil {
			return false, err
		}
	}

	_, ok := s.files[path]
	return ok, nil
}

// Delete implements storage.FileIO. Deleting a missing path succeeds.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	s.deleteCalls[path]++
	if s.deleteFault != nil {
		if err := s.deleteFault(path, s.deleteCalls[path]); err != nil {
			return err
		}
	}

	delete(s.files, path)
	return nil
}

// Has reports whether path is stored, without counting as a call.
func (s *Store) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

// Count returns the number of stored files.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Paths returns the stored paths in sorted order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ExistsCalls returns how many times Exists was called for path.
func (s *Store) ExistsCalls(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsCalls[path]
}

// DeleteCalls returns how many times Delete was called for path.
func (s *Store) DeleteCalls(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleteCalls[path]
}

// TotalDeleteCalls returns the number of Delete calls across all paths.
func (s *Store) TotalDeleteCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, n := range s.deleteCalls {
		total += n
	}
	return total
}

// Type implements storage.Typed.
func (s *Store) Type() string {
	return "memory"
}

// Close marks the store closed. Further calls fail with storage.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (s *Store) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

var _ storage.FileIO = (*Store)(nil)
