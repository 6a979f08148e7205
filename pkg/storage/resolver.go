package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/pkg/task"
)

// Resolver supplies the FileIO used for a task.
//
// The returned capability is borrowed: callers must not close it.
type Resolver interface {
	Resolve(ctx context.Context, t *task.Task) (FileIO, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, t *task.Task) (FileIO, error)

func (f ResolverFunc) Resolve(ctx context.Context, t *task.Task) (FileIO, error) {
	return f(ctx, t)
}

// Static returns a resolver handing out fio for every task.
func Static(fio FileIO) Resolver {
	return ResolverFunc(func(context.Context, *task.Task) (FileIO, error) {
		if fio == nil {
			return nil, errors.New("no file capability configured")
		}
		return fio, nil
	})
}

// KeyFunc derives the cache key (typically a table location) for a task.
type KeyFunc func(t *task.Task) (string, error)

// BuildFunc creates the capability for a cache key.
type BuildFunc func(ctx context.Context, key string) (FileIO, error)

// CachingResolver builds one capability per key and reuses it across tasks.
// Capabilities stay open until Close.
type CachingResolver struct {
	key   KeyFunc
	build BuildFunc

	mu     sync.Mutex
	cache  map[string]FileIO
	closed bool
}

// NewCachingResolver creates a CachingResolver.
func NewCachingResolver(key KeyFunc, build BuildFunc) *CachingResolver {
	return &CachingResolver{
		key:   key,
		build: build,
		cache: make(map[string]FileIO),
	}
}

// Resolve returns the cached capability for t's key, building it on first use.
func (r *CachingResolver) Resolve(ctx context.Context, t *task.Task) (FileIO, error) {
	key, err := r.key(t)
	if err != nil {
		return nil, fmt.Errorf("resolve key: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrStoreClosed
	}
	if fio, ok := r.cache[key]; ok {
		return fio, nil
	}

	fio, err := r.build(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("build file capability for %q: %w", key, err)
	}
	if fio == nil {
		return nil, fmt.Errorf("build file capability for %q: nil capability", key)
	}

	logger.Debug("Resolved file capability", "key", key, logger.KeyStoreType, TypeOf(fio))
	r.cache[key] = fio
	return fio, nil
}

// Len returns the number of cached capabilities.
func (r *CachingResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Close closes every cached capability that implements io.Closer.
func (r *CachingResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for key, fio := range r.cache {
		if c, ok := fio.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %q: %w", key, err))
			}
		}
	}
	r.cache = nil
	return errors.Join(errs...)
}
