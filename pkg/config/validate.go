package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/lakecleaner/internal/telemetry"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags first and then the rules that span fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return errors.New("telemetry.profiling.endpoint is required when profiling is enabled")
	}
	if err := telemetry.ValidateProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
		return fmt.Errorf("telemetry.profiling.profile_types: %w", err)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port {
		return fmt.Errorf("metrics.port and server.port must differ (both %d)", cfg.Server.Port)
	}

	if err := cfg.Cleanup.Retry.Validate(); err != nil {
		return fmt.Errorf("cleanup.retry: %w", err)
	}

	return validateStorage(&cfg.Storage)
}

func validateStorage(cfg *StorageConfig) error {
	switch cfg.Type {
	case StorageTypeMemory:
		return nil
	case StorageTypeLocal:
		if cfg.Local.Root == "" {
			return errors.New("storage.local.root is required for local storage")
		}
	case StorageTypeS3:
		if cfg.S3.Bucket == "" && !cfg.S3.AllowAnyBucket {
			return errors.New("storage.s3.bucket is required unless allow_any_bucket is set")
		}
		if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
			return errors.New("storage.s3 access_key_id and secret_access_key must be set together")
		}
	case StorageTypeIceberg:
		if cfg.Iceberg.Warehouse == "" {
			return errors.New("storage.iceberg.warehouse is required for iceberg storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	return nil
}
