// Background worker entry point. Consumes docking job requests from Kafka,
// runs them through the docking pipeline and reports completion or failure
// on the result topics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	workers := flag.Int("workers", 0, "number of concurrent consumers (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Worker.Concurrency = *workers
	}
	if !cfg.Kafka.Enabled {
		fmt.Fprintln(os.Stderr, "the worker requires kafka to be enabled (MOLDOCK_KAFKA_ENABLED=true)")
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting moldock worker",
		logging.String("version", version),
		logging.Int("concurrency", cfg.Worker.Concurrency),
		logging.String("group_id", cfg.Kafka.GroupID))

	reg := promclient.NewRegistry()
	metrics := appmetrics.NewAppMetrics(reg)

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", logging.Err(err))
	}
	awaiter := storage.NewAwaiter(store, cfg.Storage.Await, logger)

	var resultCache docking.ResultCache
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = redis.NewClient(&cfg.Cache.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", logging.Err(err))
		}
		resultCache = redis.NewResultCache(redis.NewCache(redisClient, logger), cfg.Cache.TTL)
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers}, logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", logging.Err(err))
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

	handler := &jobHandler{svc: svc, producer: producer, logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topics:  []string{kafka.TopicDockingRequested},
		}, producer, logger)
		if err != nil {
			logger.Fatal("failed to create kafka consumer", logging.Err(err))
		}
		consumer.RegisterHandler(kafka.EventDockingRequested, handler.Handle)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("failed to start kafka consumer", logging.Err(err))
		}
		consumers = append(consumers, consumer)
	}

	// Probe and metrics endpoint for the scheduler.
	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:   handlers.NewHealthHandler(version),
		Logger:          logger,
		Metrics:         metrics,
		MetricsGatherer: reg,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("probe server failed", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	cancel()
	for _, consumer := range consumers {
		if err := consumer.Stop(); err != nil {
			logger.Error("consumer stop error", logging.Err(err))
		}
	}
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("probe server shutdown error", logging.Err(err))
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka producer close error", logging.Err(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", logging.Err(err))
		}
	}
	logger.Info("worker stopped")
}

// jobHandler runs one queued docking job per message.
type jobHandler struct {
	svc      *docking.Service
	producer *kafka.Producer
	logger   logging.Logger
}

// Handle processes a docking.job.requested event. Pipeline failures are
// terminal for the job: the failure is reported on the failed topic and the
// message is committed rather than retried, because reruns of an invalid
// SMILES or an unknown target can never succeed.
func (h *jobHandler) Handle(ctx context.Context, env *kafka.EventEnvelope) error {
	var payload kafka.DockingRequestedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}

	h.logger.Info("processing docking job",
		logging.String("job_id", payload.JobID),
		logging.String("target", payload.TargetName))

	res, err := h.svc.Submit(ctx, docking.Request{
		SMILES:     payload.SMILES,
		TargetName: payload.TargetName,
	})
	if err != nil {
		h.publishFailed(ctx, payload, err)
		return nil
	}

	h.publishCompleted(ctx, payload.JobID, res)
	return nil
}

func (h *jobHandler) publishCompleted(ctx context.Context, jobID string, res *docking.Result) {
	env, err := kafka.NewEnvelope(kafka.EventDockingCompleted, "worker", kafka.DockingCompletedPayload{
		JobID:       jobID,
		TargetName:  res.TargetName,
		MoleculeID:  res.MoleculeID,
		Score:       res.Score,
		LigandLink:  res.Links.Ligand,
		ComplexLink: res.Links.Complex,
		CompletedAt: time.Now().UTC(),
	})
	if err == nil {
		err = h.producer.PublishEnvelope(ctx, jobID, env)
	}
	if err != nil {
		h.logger.Error("failed to publish completion event",
			logging.String("job_id", jobID),
			logging.Err(err))
	}
}

func (h *jobHandler) publishFailed(ctx context.Context, payload kafka.DockingRequestedPayload, jobErr error) {
	env, err := kafka.NewEnvelope(kafka.EventDockingFailed, "worker", kafka.DockingFailedPayload{
		JobID:      payload.JobID,
		TargetName: payload.TargetName,
		Code:       apperrors.GetCode(jobErr).String(),
		Message:    jobErr.Error(),
		FailedAt:   time.Now().UTC(),
	})
	if err == nil {
		err = h.producer.PublishEnvelope(ctx, payload.JobID, env)
	}
	if err != nil {
		h.logger.Error("failed to publish failure event",
			logging.String("job_id", payload.JobID),
			logging.Err(err))
	}
}

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
