package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestNewAndDecode(t *testing.T) {
	tk, err := New(KindTableContentCleanup, "cleanup", samplePayload{Name: "x", Count: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, KindTableContentCleanup, tk.Kind)
	assert.False(t, tk.CreatedAt.IsZero())

	var got samplePayload
	require.NoError(t, tk.Decode(&got))
	assert.Equal(t, samplePayload{Name: "x", Count: 2}, got)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	tk := &Task{Kind: KindTableContentCleanup, Data: []byte(`{"name":"x","extra":true}`)}

	var got samplePayload
	assert.Error(t, tk.Decode(&got))
}

func TestDecodeEmptyPayload(t *testing.T) {
	var got samplePayload

	assert.ErrorIs(t, (&Task{}).Decode(&got), ErrEmptyPayload)
	assert.ErrorIs(t, (&Task{Data: []byte("  ")}).Decode(&got), ErrEmptyPayload)

	var nilTask *Task
	assert.ErrorIs(t, nilTask.Decode(&got), ErrEmptyPayload)
}

func TestParse(t *testing.T) {
	t.Run("AssignsID", func(t *testing.T) {
		tk, err := Parse([]byte(`{"kind":"TABLE_CONTENT_CLEANUP","data":{"name":"a"}}`))
		require.NoError(t, err)
		assert.NotEmpty(t, tk.ID)
		assert.Equal(t, KindTableContentCleanup, tk.Kind)
	})

	t.Run("KeepsID", func(t *testing.T) {
		tk, err := Parse([]byte(`{"id":"abc","kind":"MANIFEST_FILE_CLEANUP","data":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "abc", tk.ID)
	})

	t.Run("RequiresKind", func(t *testing.T) {
		_, err := Parse([]byte(`{"data":{}}`))
		assert.Error(t, err)
	})

	t.Run("RejectsGarbage", func(t *testing.T) {
		_, err := Parse([]byte(`not json`))
		assert.Error(t, err)
	})
}

type stubHandler struct {
	name    string
	kind    Kind
	handled bool
	err     error
	panicOn string // "can" or "handle"
	calls   int
}

func (s *stubHandler) Name() string { return s.name }

func (s *stubHandler) CanHandle(t *Task) bool {
	if s.panicOn == "can" {
		panic("boom")
	}
	return t.Kind == s.kind
}

func (s *stubHandler) Handle(_ context.Context, _ *Task) (bool, error) {
	s.calls++
	if s.panicOn == "handle" {
		panic("boom")
	}
	return s.handled, s.err
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("RoutesToFirstAcceptingHandler", func(t *testing.T) {
		other := &stubHandler{name: "manifest", kind: KindManifestFileCleanup}
		cleanup := &stubHandler{name: "cleanup", kind: KindTableContentCleanup, handled: true}
		d := NewDispatcher(other, cleanup)

		handled, err := d.Dispatch(ctx, &Task{ID: "1", Kind: KindTableContentCleanup})
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, 1, cleanup.calls)
		assert.Equal(t, 0, other.calls)
	})

	t.Run("NoHandler", func(t *testing.T) {
		d := NewDispatcher()
		d.Register(&stubHandler{kind: KindManifestFileCleanup})

		handled, err := d.Dispatch(ctx, &Task{ID: "1", Kind: KindEntityCleanup})
		assert.False(t, handled)
		assert.ErrorIs(t, err, ErrNoHandler)

		_, err = d.Dispatch(ctx, nil)
		assert.ErrorIs(t, err, ErrNoHandler)
	})

	t.Run("PropagatesFatalError", func(t *testing.T) {
		fatal := errors.New("resolve failed")
		d := NewDispatcher(&stubHandler{kind: KindTableContentCleanup, err: fatal})

		handled, err := d.Dispatch(ctx, &Task{ID: "1", Kind: KindTableContentCleanup})
		assert.False(t, handled)
		assert.ErrorIs(t, err, fatal)
	})

	t.Run("PanickingCanHandleIsSkipped", func(t *testing.T) {
		good := &stubHandler{kind: KindTableContentCleanup, handled: true}
		d := NewDispatcher(&stubHandler{panicOn: "can"}, good)

		handled, err := d.Dispatch(ctx, &Task{ID: "1", Kind: KindTableContentCleanup})
		require.NoError(t, err)
		assert.True(t, handled)
	})

	t.Run("PanickingHandleBecomesError", func(t *testing.T) {
		d := NewDispatcher(&stubHandler{kind: KindTableContentCleanup, panicOn: "handle"})

		handled, err := d.Dispatch(ctx, &Task{ID: "1", Kind: KindTableContentCleanup})
		assert.False(t, handled)
		assert.ErrorIs(t, err, ErrHandlerPanic)
	})
}
