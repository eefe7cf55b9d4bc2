// Package config loads driver settings from .env files and NODEFLOW_* variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "NODEFLOW_"

// Backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendS3     = "s3"
	BackendRedis  = "redis"
)

// Config is the full set of driver settings.
type Config struct {
	RuntimeName     string
	ExtraConfigName string
	StartDir        string
	Workflow        string
	Iterations      int

	OutputDir       string
	ArtifactBackend string
	S3              S3Config

	RunStore    string
	RunStoreDir string
	RedisURL    string

	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string
}

// S3Config holds the bucket settings of the s3 artifact backend.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	iterations, err := intEnv("ITERATIONS", 0)
	if err != nil {
		return nil, err
	}
	useSSL, err := boolEnv("S3_USE_SSL", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		RuntimeName:     env("RUNTIME_NAME", "ComfyUI"),
		ExtraConfigName: env("EXTRA_CONFIG_NAME", "extra_model_paths.yaml"),
		StartDir:        env("START_DIR", ""),
		Workflow:        env("WORKFLOW", ""),
		Iterations:      iterations,

		OutputDir:       env("OUTPUT_DIR", "output"),
		ArtifactBackend: strings.ToLower(env("ARTIFACT_BACKEND", BackendFile)),
		S3: S3Config{
			Endpoint:  env("S3_ENDPOINT", ""),
			Region:    env("S3_REGION", "us-east-1"),
			AccessKey: env("S3_ACCESS_KEY", ""),
			SecretKey: env("S3_SECRET_KEY", ""),
			Bucket:    env("S3_BUCKET", "nodeflow-output"),
			UseSSL:    useSSL,
		},

		RunStore:    strings.ToLower(env("RUN_STORE", BackendMemory)),
		RunStoreDir: env("RUN_STORE_DIR", ".nodeflow/runs"),
		RedisURL:    env("REDIS_URL", "redis://localhost:6379/0"),

		LogLevel:    env("LOG_LEVEL", "info"),
		LogFormat:   env("LOG_FORMAT", "auto"),
		LogFile:     env("LOG_FILE", ""),
		MetricsAddr: env("METRICS_ADDR", ""),
	}, nil
}

// Validate rejects unknown backends and incomplete S3 settings.
func (c *Config) Validate() error {
	switch c.ArtifactBackend {
	case BackendFile, BackendMemory:
	case BackendS3:
		if c.S3.Endpoint == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 artifact backend requires %sS3_ENDPOINT, %sS3_ACCESS_KEY, %sS3_SECRET_KEY and %sS3_BUCKET",
				EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown artifact backend %q (want file, memory or s3)", c.ArtifactBackend)
	}

	switch c.RunStore {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis run store requires %sREDIS_URL", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown run store %q (want memory, file or redis)", c.RunStore)
	}

	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	return nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	return v, nil
}
