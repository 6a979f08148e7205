package cleanup

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/pkg/retry"
	"github.com/marmos91/lakecleaner/pkg/storage"
)

// Executor runs deletion units. *workerpool.Pool satisfies it.
type Executor interface {
	Submit(ctx context.Context, fn func()) error
}

// Batch fans a task's paths out to the shared executor and joins them.
type Batch struct {
	pool    Executor
	policy  retry.Policy
	metrics Metrics
}

// NewBatch creates a Batch.
func NewBatch(pool Executor, policy retry.Policy, metrics Metrics) *Batch {
	return &Batch{pool: pool, policy: policy, metrics: metrics}
}

// Run deletes every distinct path in paths and returns one outcome per
// distinct path, in first-occurrence order. It returns only after every
// submitted unit has finished.
func (b *Batch) Run(ctx context.Context, fio storage.FileIO, paths []string) []Outcome {
	unique := dedupe(paths)
	outcomes := make([]Outcome, len(unique))

	logger.DebugCtx(ctx, "Batch pending",
		logger.KeyPaths, len(unique),
		"duplicates", len(paths)-len(unique))

	var wg sync.WaitGroup
	for i, path := range unique {
		wg.Add(1)
		// Each unit writes only its own slot; wg.Wait publishes the writes.
		err := b.pool.Submit(ctx, func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = Outcome{
						Path: path,
						Err:  fmt.Errorf("%w: %v", ErrUnitPanicked, r),
					}
					logger.ErrorCtx(ctx, "Deletion unit panicked",
						logger.KeyPath, path,
						"panic", r)
				}
			}()
			outcomes[i] = deletePath(ctx, fio, path, b.policy, b.metrics)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = Outcome{
				Path: path,
				Err:  fmt.Errorf("%w: %w", ErrNotSubmitted, err),
			}
			logger.ErrorCtx(ctx, "Could not schedule delete",
				logger.KeyPath, path,
				logger.KeyError, err)
		}
	}

	logger.DebugCtx(ctx, "Batch running", logger.KeyPaths, len(unique))
	wg.Wait()
	logger.DebugCtx(ctx, "Batch joined", logger.KeyPaths, len(unique))

	for _, o := range outcomes {
		observeOutcome(b.metrics, o)
	}
	return outcomes
}

// dedupe drops repeated paths, keeping first occurrences in order.
func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}
