package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

cleanup:
  retry:
    max_attempts: 5

storage:
  type: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Cleanup.Retry.MaxAttempts != 5 {
		t.Errorf("Expected max_attempts 5, got %d", cfg.Cleanup.Retry.MaxAttempts)
	}
	if cfg.Cleanup.Retry.InitialBackoff != 100*time.Millisecond {
		t.Errorf("Expected default initial_backoff 100ms, got %v", cfg.Cleanup.Retry.InitialBackoff)
	}
	if cfg.Cleanup.Pool.Workers == 0 {
		t.Error("Expected pool workers default to be applied")
	}
}

func TestLoad_Durations(t *testing.T) {
	configPath := writeConfig(t, `
shutdown_timeout: 5s
cleanup:
  retry:
    max_attempts: 4
    initial_backoff: 250ms
    max_backoff: 1m
    multiplier: 3
    jitter: 0
server:
  request_timeout: 90s
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown_timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Cleanup.Retry.InitialBackoff != 250*time.Millisecond {
		t.Errorf("Expected initial_backoff 250ms, got %v", cfg.Cleanup.Retry.InitialBackoff)
	}
	if cfg.Cleanup.Retry.MaxBackoff != time.Minute {
		t.Errorf("Expected max_backoff 1m, got %v", cfg.Cleanup.Retry.MaxBackoff)
	}
	if cfg.Cleanup.Retry.Multiplier != 3 {
		t.Errorf("Expected multiplier 3, got %v", cfg.Cleanup.Retry.Multiplier)
	}
	if cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("Expected request_timeout 90s, got %v", cfg.Server.RequestTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults when config file is missing, got error: %v", err)
	}

	if cfg.Storage.Type != StorageTypeMemory {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
	if cfg.Cleanup.Retry.MaxAttempts != 3 {
		t.Errorf("Expected default max_attempts 3, got %d", cfg.Cleanup.Retry.MaxAttempts)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "logging: [unclosed")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, `
cleanup:
  retry:
    max_attempts: 500
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for max_attempts above 100")
	}
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[logging]
level = "DEBUG"
format = "json"

[storage]
type = "local"

[storage.local]
root = "` + yamlSafePath(t.TempDir()) + `"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Storage.Type != StorageTypeLocal {
		t.Errorf("Expected storage type 'local', got %q", cfg.Storage.Type)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("LAKECLEANER_LOGGING_LEVEL", "ERROR")
	t.Setenv("LAKECLEANER_SERVER_PORT", "9191")

	configPath := writeConfig(t, `
logging:
  level: "INFO"

server:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191 from env var, got %d", cfg.Server.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Cleanup.Retry.MaxAttempts = 7
	cfg.Cleanup.Retry.InitialBackoff = 2 * time.Second
	cfg.Storage.Type = StorageTypeS3
	cfg.Storage.S3.Bucket = "warehouse"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Cleanup.Retry.MaxAttempts != 7 {
		t.Errorf("Expected max_attempts 7, got %d", loaded.Cleanup.Retry.MaxAttempts)
	}
	if loaded.Cleanup.Retry.InitialBackoff != 2*time.Second {
		t.Errorf("Expected initial_backoff 2s, got %v", loaded.Cleanup.Retry.InitialBackoff)
	}
	if loaded.Storage.S3.Bucket != "warehouse" {
		t.Errorf("Expected bucket 'warehouse', got %q", loaded.Storage.S3.Bucket)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	if _, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := GetConfigDir()
	if filepath.Base(dir) != "lakecleaner" {
		t.Errorf("Expected directory name 'lakecleaner', got %q", filepath.Base(dir))
	}
	if GetDefaultConfigPath() != filepath.Join(dir, "config.yaml") {
		t.Errorf("Unexpected default config path %q", GetDefaultConfigPath())
	}
	if DefaultConfigExists() {
		t.Error("Expected no config in a fresh directory")
	}
}

func TestLoad_ExplicitZeroBackoffIsKept(t *testing.T) {
	configPath := writeConfig(t, `
cleanup:
  retry:
    max_attempts: 3
    initial_backoff: 0
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Cleanup.Retry.InitialBackoff != 0 {
		t.Errorf("Expected explicit initial_backoff 0 to be kept, got %v", cfg.Cleanup.Retry.InitialBackoff)
	}
	if cfg.Cleanup.Retry.MaxAttempts != 3 {
		t.Errorf("Expected max_attempts 3, got %d", cfg.Cleanup.Retry.MaxAttempts)
	}
}

func TestLoad_BackoffFromEnv(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"
`)
	t.Setenv("LAKECLEANER_CLEANUP_RETRY_INITIAL_BACKOFF", "0s")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Cleanup.Retry.InitialBackoff != 0 {
		t.Errorf("Expected initial_backoff 0 from environment, got %v", cfg.Cleanup.Retry.InitialBackoff)
	}
}
