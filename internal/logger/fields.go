package logger

import "log/slog"

// Standard field keys for structured logging. Use them consistently so cleanup
// runs can be correlated across log aggregation queries.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Task framework
	KeyTaskID   = "task_id"
	KeyTaskKind = "task_kind"
	KeyTaskName = "task_name"
	KeyHandler  = "handler"
	KeyHandled  = "handled"

	// Table and file identity
	KeyTable = "table"
	KeyPath  = "path"
	KeyPaths = "paths"

	// Retry bookkeeping
	KeyAttempt     = "attempt"
	KeyMaxAttempts = "max_attempts"
	KeyBackoff     = "backoff"

	// Batch aggregation
	KeyDeleted = "deleted"
	KeyAbsent  = "absent"
	KeyFailed  = "failed"
	KeyWorkers = "workers"
	KeyPending = "pending"

	// Storage backend
	KeyStoreType = "store_type"
	KeyBucket    = "bucket"
	KeyKey       = "key"
	KeyRegion    = "region"
	KeyOperation = "operation"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyRequestID  = "request_id"
)

// TaskID returns a slog.Attr for a task identifier
func TaskID(id string) slog.Attr {
	return slog.String(KeyTaskID, id)
}

// Table returns a slog.Attr for a fully qualified table name
func Table(name string) slog.Attr {
	return slog.String(KeyTable, name)
}

// Path returns a slog.Attr for a storage path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxAttempts returns a slog.Attr for the attempt bound
func MaxAttempts(n int) slog.Attr {
	return slog.Int(KeyMaxAttempts, n)
}

func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attribute,
// which slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
