package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on cleanup spans.
const (
	AttrTaskID      = "task.id"
	AttrTaskKind    = "task.kind"
	AttrTable       = "table.name"
	AttrPathCount   = "cleanup.paths"
	AttrPath        = "cleanup.path"
	AttrAttempts    = "cleanup.attempts"
	AttrSucceeded   = "cleanup.succeeded"
	AttrMaxAttempts = "cleanup.max_attempts"
	AttrPoolWorkers = "cleanup.pool.workers"
	AttrStoreType   = "store.type"
	AttrBucket      = "storage.bucket"
	AttrKey         = "storage.key"
)

// Span names. Format: <component>.<operation>
const (
	SpanTaskDispatch = "task.dispatch"
	SpanCleanupTask  = "cleanup.task"
	SpanDeletePath   = "cleanup.delete_path"
	SpanStorageHead  = "storage.exists"
	SpanStorageDel   = "storage.delete"
)

func TaskID(id string) attribute.KeyValue {
	return attribute.String(AttrTaskID, id)
}

func TaskKind(kind string) attribute.KeyValue {
	return attribute.String(AttrTaskKind, kind)
}

func Table(name string) attribute.KeyValue {
	return attribute.String(AttrTable, name)
}

func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

func Attempts(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempts, n)
}

func Succeeded(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrSucceeded, ok)
}

func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

func Key(k string) attribute.KeyValue {
	return attribute.String(AttrKey, k)
}

// StartTaskSpan starts the root span for one cleanup task.
func StartTaskSpan(ctx context.Context, taskID, table string, paths int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCleanupTask,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			TaskID(taskID),
			Table(table),
			attribute.Int(AttrPathCount, paths),
		))
}

// StartDeleteSpan starts a span covering every attempt for a single path.
func StartDeleteSpan(ctx context.Context, path string, maxAttempts int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanDeletePath,
		trace.WithAttributes(
			Path(path),
			attribute.Int(AttrMaxAttempts, maxAttempts),
		))
}

// StartStorageSpan starts a client span for a storage backend call.
func StartStorageSpan(ctx context.Context, name, storeType string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, StoreType(storeType))
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}
