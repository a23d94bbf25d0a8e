package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "MOLDOCK"

// configKeys lists every leaf configuration key.  Viper only resolves
// environment variables for keys it knows about, so each key is bound
// explicitly; without this, env-only deployments (no config file) would
// silently ignore their MOLDOCK_* variables.
var configKeys = []string{
	"server.host", "server.port", "server.mode",
	"server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	"storage.backend", "storage.root", "storage.allow_rename",
	"storage.await.max_attempts", "storage.await.base_delay",
	"storage.await.max_delay", "storage.await.min_bytes",
	"storage.minio.endpoint", "storage.minio.access_key_id",
	"storage.minio.secret_access_key", "storage.minio.use_ssl",
	"storage.minio.region", "storage.minio.bucket",
	"engine.binary_path", "engine.mount_root", "engine.targets_dir", "engine.output_dir",
	"engine.num_cpus", "engine.timeout",
	"docking.targets_dir", "docking.viewer_base_url",
	"kafka.enabled", "kafka.brokers", "kafka.group_id",
	"cache.enabled", "cache.ttl",
	"cache.redis.addr", "cache.redis.username", "cache.redis.password",
	"cache.redis.db", "cache.redis.pool_size", "cache.redis.min_idle_conns",
	"cache.redis.dial_timeout", "cache.redis.read_timeout", "cache.redis.write_timeout",
	"worker.concurrency",
}

// newViper builds a pre-configured Viper instance: YAML file type, MOLDOCK_
// env prefix, automatic env binding, and a key replacer that maps "." to "_"
// so nested keys like "storage.root" resolve to "MOLDOCK_STORAGE_ROOT".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges MOLDOCK_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLDOCK_* environment variables,
// with no config file required.  Preferred for containerised deployments.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file changes on disk.  A changed file that fails
// to parse or validate is ignored; the previous configuration stays active.
// Watch is non-blocking.
func Watch(configPath string, onChange func(*Config)) error {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
