package config

import (
	"context"
	"fmt"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/storage"
	"github.com/marmos91/lakecleaner/pkg/storage/iceberg"
	"github.com/marmos91/lakecleaner/pkg/storage/local"
	"github.com/marmos91/lakecleaner/pkg/storage/memory"
	"github.com/marmos91/lakecleaner/pkg/storage/s3"
)

// CreateFileIO builds the file capability described by cfg.
//
// The iceberg backend is loaded from the warehouse location; use
// CreateResolver to get one instance per table instead.
func CreateFileIO(ctx context.Context, cfg StorageConfig, s3Metrics s3.Metrics) (storage.FileIO, error) {
	switch cfg.Type {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeLocal:
		return createLocalFileIO(cfg.Local)
	case StorageTypeS3:
		return createS3FileIO(ctx, cfg.S3, s3Metrics)
	case StorageTypeIceberg:
		return createIcebergFileIO(ctx, cfg.Iceberg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// CreateResolver returns the resolver handed to the cleanup handler.
//
// Backends that are table independent are built once and shared. The iceberg
// backend is built lazily per table and cached; callers must Close the
// returned resolver when it implements io.Closer.
func CreateResolver(ctx context.Context, cfg StorageConfig, s3Metrics s3.Metrics) (storage.Resolver, error) {
	if cfg.Type == StorageTypeIceberg {
		icebergCfg := cfg.Iceberg
		return storage.NewCachingResolver(cleanup.TableKey, func(ctx context.Context, table string) (storage.FileIO, error) {
			logger.DebugCtx(ctx, "Loading iceberg file io", logger.Table(table), "warehouse", icebergCfg.Warehouse)
			return createIcebergFileIO(ctx, icebergCfg)
		}), nil
	}

	fio, err := CreateFileIO(ctx, cfg, s3Metrics)
	if err != nil {
		return nil, err
	}
	return storage.Static(fio), nil
}

func createLocalFileIO(cfg LocalStorageConfig) (storage.FileIO, error) {
	store, err := local.NewOS(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create local store: %w", err)
	}

	logger.Info("Local storage initialized", "root", store.Root())
	return store, nil
}

func createS3FileIO(ctx context.Context, cfg s3.Config, metrics s3.Metrics) (storage.FileIO, error) {
	store, err := s3.NewFromConfig(ctx, cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}

	logger.Info("S3 storage initialized",
		logger.Bucket(cfg.Bucket),
		logger.KeyRegion, cfg.Region,
		"endpoint", cfg.Endpoint)
	return store, nil
}

func createIcebergFileIO(ctx context.Context, cfg IcebergStorageConfig) (storage.FileIO, error) {
	store, err := iceberg.NewFromLocation(ctx, cfg.Properties, cfg.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to create iceberg store: %w", err)
	}
	return store, nil
}
