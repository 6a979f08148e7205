package telemetry

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/grafana/pyroscope-go"

	"github.com/marmos91/lakecleaner/internal/logger"
)

// ProfilingConfig contains configuration for Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool

	// ServiceName is the application name shown in Pyroscope. Empty uses
	// DefaultServiceName.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL (e.g., "http://localhost:4040")
	Endpoint string

	// ProfileTypes specifies which profile types to collect. Empty selects
	// DefaultProfileTypes.
	ProfileTypes []string

	// Deployment is attached to every profile as tags, so flame graphs of
	// differently sized cleaners can be told apart.
	Deployment Deployment
}

// DefaultProfileTypes is used when no profile types are configured. Deletion
// workers spend most of their time blocked on storage, so goroutine and
// block profiles are collected alongside CPU and heap.
var DefaultProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines", "block_duration"}

// profileKinds maps configuration names to Pyroscope profile types. Types
// flagged runtimeRate need the runtime's sampling switched on first.
var profileKinds = map[string]struct {
	kind        pyroscope.ProfileType
	runtimeRate bool
}{
	"cpu":            {kind: pyroscope.ProfileCPU},
	"alloc_objects":  {kind: pyroscope.ProfileAllocObjects},
	"alloc_space":    {kind: pyroscope.ProfileAllocSpace},
	"inuse_objects":  {kind: pyroscope.ProfileInuseObjects},
	"inuse_space":    {kind: pyroscope.ProfileInuseSpace},
	"goroutines":     {kind: pyroscope.ProfileGoroutines},
	"mutex_count":    {kind: pyroscope.ProfileMutexCount, runtimeRate: true},
	"mutex_duration": {kind: pyroscope.ProfileMutexDuration, runtimeRate: true},
	"block_count":    {kind: pyroscope.ProfileBlockCount, runtimeRate: true},
	"block_duration": {kind: pyroscope.ProfileBlockDuration, runtimeRate: true},
}

// profileSampleRate is passed to the runtime for mutex and block profiles.
const profileSampleRate = 5

var (
	profiler         *pyroscope.Profiler
	profilingEnabled bool
)

// ValidateProfileTypes reports the first unknown profile type in types.
func ValidateProfileTypes(types []string) error {
	for _, pt := range types {
		if _, err := parseProfileType(pt); err != nil {
			return err
		}
	}
	return nil
}

// InitProfiling initializes Pyroscope continuous profiling.
// Returns a shutdown function that should be called to stop profiling.
func InitProfiling(cfg ProfilingConfig) (shutdown func() error, err error) {
	profilingEnabled = cfg.Enabled
	if !cfg.Enabled {
		return func() error { return nil }, nil
	}

	types := cfg.ProfileTypes
	if len(types) == 0 {
		types = DefaultProfileTypes
	}

	kinds := make([]pyroscope.ProfileType, 0, len(types))
	for _, pt := range types {
		kind, err := parseProfileType(pt)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
		enableRuntimeSampling(pt)
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	profiler, err = pyroscope.Start(pyroscope.Config{
		ApplicationName: name,
		ServerAddress:   cfg.Endpoint,
		Logger:          pyroscopeLogger{},
		Tags:            profileTags(cfg),
		ProfileTypes:    kinds,
	})
	if err != nil {
		profilingEnabled = false
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}

	logger.Debug("Profiler started", "application", name, "profile_types", strings.Join(types, ","))

	return func() error {
		if profiler == nil {
			return nil
		}
		return profiler.Stop()
	}, nil
}

// IsProfilingEnabled returns whether profiling is enabled
func IsProfilingEnabled() bool {
	return profilingEnabled
}

// ProfileTask runs fn with the task kind attached as a profile label, so
// time spent on each kind of task can be separated in Pyroscope. Without an
// active profiler fn runs directly.
func ProfileTask(ctx context.Context, kind string, fn func(context.Context)) {
	if !profilingEnabled {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels("task_kind", kind), fn)
}

func profileTags(cfg ProfilingConfig) map[string]string {
	tags := map[string]string{"version": cfg.ServiceVersion}
	if cfg.Deployment.StoreType != "" {
		tags["store_type"] = cfg.Deployment.StoreType
	}
	if cfg.Deployment.Workers > 0 {
		tags["workers"] = strconv.Itoa(cfg.Deployment.Workers)
	}
	return tags
}

func enableRuntimeSampling(pt string) {
	if !profileKinds[pt].runtimeRate {
		return
	}
	if strings.HasPrefix(pt, "mutex_") {
		runtime.SetMutexProfileFraction(profileSampleRate)
	} else {
		runtime.SetBlockProfileRate(profileSampleRate)
	}
}

// parseProfileType converts a configured profile type name.
func parseProfileType(pt string) (pyroscope.ProfileType, error) {
	p, ok := profileKinds[pt]
	if !ok {
		return "", fmt.Errorf("unknown profile type %q (valid: %s)", pt, strings.Join(knownProfileTypes(), ", "))
	}
	return p.kind, nil
}

func knownProfileTypes() []string {
	names := make([]string, 0, len(profileKinds))
	for name := range profileKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pyroscopeLogger routes profiler diagnostics into the service log.
type pyroscopeLogger struct{}

func (pyroscopeLogger) Infof(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), "component", "pyroscope")
}

func (pyroscopeLogger) Debugf(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), "component", "pyroscope")
}

func (pyroscopeLogger) Errorf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...), "component", "pyroscope")
}
