package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

var ErrAlreadyRunning = apperrors.New(apperrors.ErrCodeConflict, "consumer already running")

// EnvelopeHandler processes one decoded event.  Returning an error sends the
// message to the dead-letter topic after retries.
type EnvelopeHandler func(ctx context.Context, env *EventEnvelope) error

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	GroupID           string        `mapstructure:"group_id"`
	Topics            []string      `mapstructure:"topics"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset"`
	SessionTimeout    time.Duration `mapstructure:"session_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

// ConsumerMetrics holds consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesDeadLettered atomic.Int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher receives messages whose handler kept failing.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, msg kafka.Message, handlerErr error) error
}

// Consumer fetches envelopes and dispatches them to per-event-type handlers.
// Offsets are committed only after the handler succeeds or the message is
// dead-lettered, so a crash mid-job replays the job.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]EnvelopeHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter DeadLetterPublisher
	metrics    *ConsumerMetrics
}

// NewConsumer creates a Consumer.  deadLetter may be nil, in which case
// exhausted messages are committed and dropped with a log line.
func NewConsumer(cfg ConsumerConfig, deadLetter DeadLetterPublisher, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one broker required")
	}
	if cfg.GroupID == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "group id required")
	}
	if len(cfg.Topics) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one topic required")
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Second
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       cfg.Topics,
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		StartOffset:       startOffset,
	})

	return &Consumer{
		reader:     reader,
		config:     cfg,
		logger:     log,
		handlers:   map[string]EnvelopeHandler{},
		deadLetter: deadLetter,
		metrics:    &ConsumerMetrics{},
	}, nil
}

// RegisterHandler binds eventType to handler.  Must be called before Start.
func (c *Consumer) RegisterHandler(eventType string, handler EnvelopeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = handler
}

// Start launches the fetch loop.  It returns immediately; the loop runs
// until Stop or ctx cancellation.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop(ctx)
	}()
	return nil
}

// Stop halts the fetch loop and closes the reader.
func (c *Consumer) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	return c.reader.Close()
}

// Metrics exposes the consumer counters.
func (c *Consumer) Metrics() *ConsumerMetrics { return c.metrics }

func (c *Consumer) loop(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			continue
		}
		c.metrics.MessagesConsumed.Add(1)
		c.handleMessage(ctx, msg)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		c.logger.Error("undecodable message",
			logging.String("topic", msg.Topic),
			logging.Err(err))
		c.metrics.MessagesFailed.Add(1)
		c.sendToDeadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return
	}

	c.mu.RLock()
	handler, ok := c.handlers[env.EventType]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for event type",
			logging.String("event_type", env.EventType),
			logging.String("topic", msg.Topic))
		c.commit(ctx, msg)
		return
	}

	var handlerErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.config.RetryBackoff):
			}
		}
		if handlerErr = handler(ctx, &env); handlerErr == nil {
			break
		}
		c.logger.Warn("handler failed",
			logging.String("event_id", env.EventID),
			logging.Int("attempt", attempt+1),
			logging.Err(handlerErr))
	}

	if handlerErr != nil {
		c.metrics.MessagesFailed.Add(1)
		c.sendToDeadLetter(ctx, msg, handlerErr)
	} else {
		c.metrics.MessagesProcessed.Add(1)
	}
	c.commit(ctx, msg)
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.deadLetter == nil {
		c.logger.Error("dropping message without dead-letter topic",
			logging.String("topic", msg.Topic),
			logging.Err(cause))
		return
	}
	if err := c.deadLetter.PublishDeadLetter(ctx, msg, cause); err != nil {
		c.logger.Error("dead-letter publish failed", logging.Err(err))
		return
	}
	c.metrics.MessagesDeadLettered.Add(1)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit failed",
			logging.String("topic", msg.Topic),
			logging.Err(err))
	}
}
