package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{})
	assert.Equal(t, DefaultWorkers, p.Workers())
	assert.Equal(t, DefaultQueueSize, cap(p.jobs))
}

func TestSubmitRunsEveryJob(t *testing.T) {
	p := New(Config{Workers: 3, QueueSize: 2})
	p.Start()
	defer p.Stop(time.Second)

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()

	assert.EqualValues(t, 50, count.Load())
}

func TestConcurrencyIsBounded(t *testing.T) {
	const workers = 2
	p := New(Config{Workers: workers, QueueSize: 10})
	p.Start()
	defer p.Stop(time.Second)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func() {
			defer wg.Done()
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			current.Add(-1)
		}))
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestSubmitBeforeStart(t *testing.T) {
	p := New(Config{Workers: 1})
	assert.ErrorIs(t, p.Submit(context.Background(), func() {}), ErrPoolNotStarted)
}

func TestSubmitAfterStop(t *testing.T) {
	p := New(Config{Workers: 1})
	p.Start()
	p.Stop(time.Second)

	assert.ErrorIs(t, p.Submit(context.Background(), func() {}), ErrPoolStopped)

	// Stop is idempotent.
	p.Stop(time.Second)
}

func TestSubmitHonorsContext(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1})
	p.Start()
	defer p.Stop(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() {
		close(started)
		<-release
	}))
	<-started

	// Fill the single queue slot so the next submit blocks.
	require.NoError(t, p.Submit(context.Background(), func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Submit(ctx, func() {}), context.DeadlineExceeded)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	assert.ErrorIs(t, p.Submit(cancelled, func() {}), context.Canceled)

	close(release)
}

func TestStopDrainsQueuedJobs(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 10})
	p.Start()

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), func() {
			time.Sleep(time.Millisecond)
			count.Add(1)
		}))
	}
	p.Stop(5 * time.Second)

	assert.EqualValues(t, 10, count.Load())
	assert.Equal(t, 10, p.Stats().Completed)
	assert.Equal(t, 0, p.Stats().Queued)
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 4})
	p.Start()
	defer p.Stop(time.Second)

	require.NoError(t, p.Submit(context.Background(), func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive a panicking job")
	}

	assert.Eventually(t, func() bool {
		s := p.Stats()
		return s.Panicked == 1 && s.Completed == 1
	}, time.Second, time.Millisecond)
}

func TestNilJobRejected(t *testing.T) {
	p := New(Config{Workers: 1})
	p.Start()
	defer p.Stop(time.Second)

	assert.Error(t, p.Submit(context.Background(), nil))
}
