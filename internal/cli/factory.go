package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/nodeflow"
	"github.com/aretw0/nodeflow/internal/bootstrap"
	"github.com/aretw0/nodeflow/internal/config"
	"github.com/aretw0/nodeflow/internal/logging"
	"github.com/aretw0/nodeflow/pkg/adapters/file"
	"github.com/aretw0/nodeflow/pkg/adapters/memory"
	"github.com/aretw0/nodeflow/pkg/adapters/redis"
	"github.com/aretw0/nodeflow/pkg/adapters/s3"
	"github.com/aretw0/nodeflow/pkg/ports"
)

// lockPrefix namespaces run locks next to the redis run records.
const lockPrefix = "nodeflow:"

// createLogger configures the application logger from cfg.
// Debug forces the debug level.
func createLogger(cfg *config.Config, debug bool) (*slog.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithOptions(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
}

// createArtifactStore selects the SaveImage backend.
func createArtifactStore(cfg *config.Config) (ports.ArtifactStore, error) {
	switch cfg.ArtifactBackend {
	case config.BackendMemory:
		return memory.NewArtifacts(), nil
	case config.BackendS3:
		return s3.NewArtifacts(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		return file.NewArtifacts(cfg.OutputDir), nil
	}
}

// createRunStore selects the run record backend and the run locker: redis
// shares its connection, the local backends lock in process.
func createRunStore(cfg *config.Config) (ports.RunStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.RunStore {
	case config.BackendFile:
		return file.New(cfg.RunStoreDir), memory.NewLocker(), nopCloser{}, nil
	case config.BackendRedis:
		store, err := redis.NewFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, redis.NewLocker(store.Client(), lockPrefix), store, nil
	default:
		return memory.NewStore(), memory.NewLocker(), nopCloser{}, nil
	}
}

// createDriver wires a Driver from cfg. The closer releases backend connections.
func createDriver(cfg *config.Config, logger *slog.Logger, debug bool, extra ...nodeflow.Option) (*nodeflow.Driver, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	artifacts, err := createArtifactStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	runs, locker, closer, err := createRunStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	opts := []nodeflow.Option{
		nodeflow.WithLogger(logger),
		nodeflow.WithArtifactStore(artifacts),
		nodeflow.WithRunStore(runs),
		nodeflow.WithBootstrapOptions(bootstrap.Options{
			RuntimeName:     cfg.RuntimeName,
			ExtraConfigName: cfg.ExtraConfigName,
			StartDir:        cfg.StartDir,
		}),
	}
	if locker != nil {
		opts = append(opts, nodeflow.WithLocker(locker, nodeflow.DefaultLockTTL))
	}
	if debug {
		opts = append(opts, nodeflow.WithRunHooks(createDebugHooks(logger)))
	}
	opts = append(opts, extra...)

	drv, err := nodeflow.New(opts...)
	if err != nil {
		return nil, nil, errors.Join(err, closer.Close())
	}
	return drv, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
