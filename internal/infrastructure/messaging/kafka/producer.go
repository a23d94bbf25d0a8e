package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

var ErrProducerClosed = apperrors.New(apperrors.ErrCodeInternal, "producer closed")

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	Acks            string        `mapstructure:"acks"`
	MaxRetries      int           `mapstructure:"max_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxMessageBytes int           `mapstructure:"max_message_bytes"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes event envelopes, keyed by target name so all jobs for
// one target land on one partition.
type Producer struct {
	writer  WriterInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

// NewProducer creates a Producer over cfg.Brokers.
func NewProducer(cfg ProducerConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one broker required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1024 * 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks,
	}

	return &Producer{
		writer:  writer,
		config:  cfg,
		logger:  log,
		metrics: &ProducerMetrics{},
	}, nil
}

// PublishEnvelope routes env to its topic and publishes it with key.
func (p *Producer) PublishEnvelope(ctx context.Context, key string, env *EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	topic, err := TopicForEvent(env.EventType)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode envelope")
	}
	if len(value) > p.config.MaxMessageBytes {
		return apperrors.New(apperrors.ErrCodeValidation, "message exceeds max size")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(env.EventID)},
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return apperrors.Wrap(err, apperrors.ErrCodeQueueError, "publish to "+topic)
	}
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(value)))

	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_id", env.EventID))
	return nil
}

// PublishDeadLetter forwards an unprocessable message to the dead-letter
// topic with the failure reason attached as a header.
func (p *Producer) PublishDeadLetter(ctx context.Context, msg kafka.Message, handlerErr error) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	dead := kafka.Message{
		Topic: TopicDeadLetter,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "origin_topic", Value: []byte(msg.Topic)},
			kafka.Header{Key: "error", Value: []byte(handlerErr.Error())},
		),
	}
	if err := p.writer.WriteMessages(ctx, dead); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return apperrors.Wrap(err, apperrors.ErrCodeQueueError, "publish dead letter")
	}
	p.metrics.MessagesSent.Add(1)
	return nil
}

// Metrics exposes the producer counters.
func (p *Producer) Metrics() *ProducerMetrics { return p.metrics }

// Close flushes and closes the writer.  Publish calls after Close fail with
// ErrProducerClosed.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
