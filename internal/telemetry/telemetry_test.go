package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "lakecleaner", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	require.NotNil(t, Tracer())
}

func TestSpanHelpersWithoutInit(t *testing.T) {
	ctx := context.Background()

	taskCtx, taskSpan := StartTaskSpan(ctx, "task-1", "db1.schema1.table1", 4)
	require.NotNil(t, taskSpan)

	delCtx, delSpan := StartDeleteSpan(taskCtx, "s3://bucket/a", 3)
	require.NotNil(t, delSpan)

	_, storeSpan := StartStorageSpan(delCtx, SpanStorageDel, "s3", Bucket("bucket"), Key("a"))
	storeSpan.End()

	// None of these may panic on a no-op span.
	AddEvent(delCtx, "retry", Attempts(2))
	SetAttributes(delCtx, Succeeded(true))
	RecordError(delCtx, errors.New("boom"))
	RecordError(delCtx, nil)

	delSpan.End()
	taskSpan.End()

	// No-op spans carry no ids.
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		kv   attribute.KeyValue
		key  string
	}{
		{"TaskID", TaskID("x"), AttrTaskID},
		{"TaskKind", TaskKind("TABLE_CONTENT_CLEANUP"), AttrTaskKind},
		{"Table", Table("a.b"), AttrTable},
		{"Path", Path("/tmp/x"), AttrPath},
		{"Attempts", Attempts(3), AttrAttempts},
		{"Succeeded", Succeeded(false), AttrSucceeded},
		{"StoreType", StoreType("memory"), AttrStoreType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, string(tt.kv.Key))
		})
	}
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileType(t *testing.T) {
	for _, pt := range DefaultProfileTypes {
		_, err := parseProfileType(pt)
		assert.NoError(t, err, pt)
	}

	_, err := parseProfileType("heap_magic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block_duration", "error lists valid types")

	assert.NoError(t, ValidateProfileTypes(nil))
	assert.Error(t, ValidateProfileTypes([]string{"cpu", "heap_magic"}))
}

func TestDeploymentAttributes(t *testing.T) {
	assert.Empty(t, Deployment{}.Attributes())

	attrs := Deployment{StoreType: "s3", Workers: 16, MaxAttempts: 5}.Attributes()
	got := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value
	}
	assert.Equal(t, "s3", got[AttrStoreType].AsString())
	assert.EqualValues(t, 16, got[AttrPoolWorkers].AsInt64())
	assert.EqualValues(t, 5, got[AttrMaxAttempts].AsInt64())
}

func TestProfileTags(t *testing.T) {
	tags := profileTags(ProfilingConfig{
		ServiceVersion: "1.2.0",
		Deployment:     Deployment{StoreType: "iceberg", Workers: 8},
	})
	assert.Equal(t, map[string]string{"version": "1.2.0", "store_type": "iceberg", "workers": "8"}, tags)

	assert.Equal(t, map[string]string{"version": ""}, profileTags(ProfilingConfig{}))
}

func TestProfileTaskWithoutProfiler(t *testing.T) {
	profilingEnabled = false

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	ran := false
	ProfileTask(ctx, "TABLE_CONTENT_CLEANUP", func(got context.Context) {
		ran = true
		assert.Equal(t, "v", got.Value(key{}))
	})
	assert.True(t, ran)
}
