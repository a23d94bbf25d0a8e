package config

import "time"

// Default value constants
const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultStorageBackend = "local"
	DefaultStorageRoot    = "/data"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "moldock-workers"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 4
)

// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Synchronous docking responses wait for the engine.
		cfg.Server.WriteTimeout = 10 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = DefaultStorageRoot
	}
	cfg.Storage.Await.ApplyDefaults()

	cfg.Engine.ApplyDefaults()
	// The local backend and the subprocess share one directory tree, so the
	// store root doubles as the engine's mount root.  Object-store backends
	// need an explicit mount of the bucket.
	if cfg.Engine.MountRoot == "" && cfg.Storage.Backend == "local" {
		cfg.Engine.MountRoot = cfg.Storage.Root
	}
	cfg.Docking.ApplyDefaults()

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}

	cfg.Cache.Redis.ApplyDefaults()
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
}
