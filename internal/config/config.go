// Package config provides configuration loading, defaults, and validation
// for the moldock service.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/infrastructure/database/redis"
	"github.com/turtacn/moldock/internal/infrastructure/engine"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/internal/infrastructure/storage"
)

// ServerConfig covers the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects and parameterises the artifact store.
type StorageConfig struct {
	// Backend is "local" or "minio".
	Backend string `mapstructure:"backend"`
	// Root is the base directory of the local backend.
	Root string `mapstructure:"root"`
	// AllowRename is false on volumes that reject rename, forcing Move to
	// copy+delete.
	AllowRename bool                `mapstructure:"allow_rename"`
	Await       storage.AwaitConfig `mapstructure:"await"`
	MinIO       storage.MinIOConfig `mapstructure:"minio"`
}

// KafkaConfig covers the async job queue.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// CacheConfig covers the result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   redis.Config  `mapstructure:"redis"`
}

// WorkerConfig covers the async job worker.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Config is the root configuration structure.  Every component reads its
// settings from the relevant sub-struct.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Log     logging.LogConfig `mapstructure:"log"`
	Storage StorageConfig     `mapstructure:"storage"`
	Engine  engine.VinaConfig `mapstructure:"engine"`
	Docking docking.Config    `mapstructure:"docking"`
	Kafka   KafkaConfig       `mapstructure:"kafka"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Worker  WorkerConfig      `mapstructure:"worker"`
}

// Validate performs semantic validation of the fully-populated Config.  Any
// error is fatal; the process should refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	switch c.Storage.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("config: storage.backend %q is invalid; expected local|minio", c.Storage.Backend)
	}
	if c.Storage.Backend == "local" && c.Storage.Root == "" {
		return fmt.Errorf("config: storage.root is required for the local backend")
	}
	if c.Storage.Backend == "minio" && c.Storage.MinIO.Endpoint == "" {
		return fmt.Errorf("config: storage.minio.endpoint is required for the minio backend")
	}
	if c.Storage.Await.MaxAttempts < 1 {
		return fmt.Errorf("config: storage.await.max_attempts must be ≥ 1, got %d", c.Storage.Await.MaxAttempts)
	}

	if c.Engine.Timeout < time.Second {
		return fmt.Errorf("config: engine.timeout must be ≥ 1s, got %s", c.Engine.Timeout)
	}
	if c.Storage.Backend == "minio" && c.Engine.MountRoot == "" {
		return fmt.Errorf("config: engine.mount_root must point at a local mount of the bucket when storage.backend is minio")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	}

	if c.Cache.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr is required when the cache is enabled")
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
