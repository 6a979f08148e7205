package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/lakecleaner/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put("a", []byte("data"))

	ok, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "a"))

	ok, err = s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is harmless.
	require.NoError(t, s.Delete(ctx, "a"))
	assert.Equal(t, 2, s.DeleteCalls("a"))
	assert.Equal(t, 2, s.ExistsCalls("a"))
}

func TestFaults(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put("a", nil)

	errFlaky := errors.New("flaky")
	s.FailDelete(func(_ string, n int) error {
		if n <= 2 {
			return errFlaky
		}
		return nil
	})

	assert.ErrorIs(t, s.Delete(ctx, "a"), errFlaky)
	assert.ErrorIs(t, s.Delete(ctx, "a"), errFlaky)
	assert.True(t, s.Has("a"), "failed delete must keep the file")
	require.NoError(t, s.Delete(ctx, "a"))
	assert.False(t, s.Has("a"))

	s.FailExists(func(string, int) error { return errFlaky })
	_, err := s.Exists(ctx, "a")
	assert.ErrorIs(t, err, errFlaky)
}

func TestPathsAndCount(t *testing.T) {
	s := New()
	s.Put("b", nil)
	s.Put("a", nil)

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []string{"a", "b"}, s.Paths())
	assert.Equal(t, "memory", storage.TypeOf(s))
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close())
	assert.True(t, s.IsClosed())

	_, err := s.Exists(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(ctx, "a"), storage.ErrStoreClosed)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	_, err := s.Exists(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.ExistsCalls("a"))
}
