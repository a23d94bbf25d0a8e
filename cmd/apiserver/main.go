// API server entry point for moldock.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/config"
	"github.com/turtacn/moldock/internal/domain/structure/convert"
	"github.com/turtacn/moldock/internal/infrastructure/chem"
	"github.com/turtacn/moldock/internal/infrastructure/database/redis"
	"github.com/turtacn/moldock/internal/infrastructure/engine"
	"github.com/turtacn/moldock/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	appmetrics "github.com/turtacn/moldock/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/moldock/internal/infrastructure/storage"
	httpserver "github.com/turtacn/moldock/internal/interfaces/http"
	"github.com/turtacn/moldock/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting moldock API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
		logging.String("storage_backend", cfg.Storage.Backend))

	reg := promclient.NewRegistry()
	reg.MustRegister(promclient.NewGoCollector())
	metrics := appmetrics.NewAppMetrics(reg)

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", logging.Err(err))
	}
	awaiter := storage.NewAwaiter(store, cfg.Storage.Await, logger)

	checkers := []handlers.HealthChecker{
		&storageHealthAdapter{store: store, probePath: cfg.Docking.TargetsDir},
	}

	var resultCache docking.ResultCache
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = redis.NewClient(&cfg.Cache.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", logging.Err(err))
		}
		cache := redis.NewCache(redisClient, logger)
		resultCache = redis.NewResultCache(cache, cfg.Cache.TTL)
		checkers = append(checkers, &redisHealthAdapter{client: redisClient})
	}

	var publisher handlers.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers}, logger)
		if err != nil {
			logger.Fatal("failed to create kafka producer", logging.Err(err))
		}
		publisher = producer
	}

	svc := docking.NewService(
		cfg.Docking,
		engine.NewVinaEngine(cfg.Engine, logger),
		chem.NewHashIdentityService(),
		store,
		awaiter,
		convert.NewPDBQTConverter(),
		resultCache,
		metrics,
		logger,
	)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		DockHandler:      handlers.NewDockHandler(svc, publisher, logger),
		StructureHandler: handlers.NewStructureHandler(awaiter, logger),
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		Logger:           logger,
		Metrics:          metrics,
		MetricsGatherer:  reg,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", logging.Err(err))
		}
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka producer close error", logging.Err(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", logging.Err(err))
		}
	}
	logger.Info("API server stopped")
}

// loadConfig reads the config file when it exists and otherwise falls back
// to environment variables.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func buildStore(cfg *config.Config, logger logging.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return storage.NewMinIOStore(&cfg.Storage.MinIO, logger)
	default:
		return storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.AllowRename), nil
	}
}
