package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
)

type stubWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func newStubProducer(t *testing.T) (*Producer, *stubWriter) {
	t.Helper()
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
	require.NoError(t, err)
	w := &stubWriter{}
	p.writer = w
	return p, w
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestPublishEnvelope(t *testing.T) {
	p, w := newStubProducer(t)

	env, err := NewEnvelope(EventDockingRequested, "apiserver", DockingRequestedPayload{
		JobID: "job-1", SMILES: "CCO", TargetName: "DRD2",
	})
	require.NoError(t, err)
	require.NoError(t, p.PublishEnvelope(context.Background(), "DRD2", env))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicDockingRequested, msg.Topic)
	assert.Equal(t, []byte("DRD2"), msg.Key)

	var decoded EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)

	assert.Equal(t, int64(1), p.Metrics().MessagesSent.Load())
}

func TestPublishEnvelope_UnknownEventType(t *testing.T) {
	p, w := newStubProducer(t)
	err := p.PublishEnvelope(context.Background(), "k", &EventEnvelope{EventType: "bogus"})
	assert.Error(t, err)
	assert.Empty(t, w.messages)
}

func TestPublishEnvelope_AfterClose(t *testing.T) {
	p, w := newStubProducer(t)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	env, err := NewEnvelope(EventDockingRequested, "apiserver", DockingRequestedPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.PublishEnvelope(context.Background(), "k", env), ErrProducerClosed)
}

func TestPublishDeadLetter(t *testing.T) {
	p, w := newStubProducer(t)

	origin := kafka.Message{
		Topic: TopicDockingRequested,
		Key:   []byte("DRD2"),
		Value: []byte(`{"event_type":"docking.job.requested"}`),
	}
	require.NoError(t, p.PublishDeadLetter(context.Background(), origin, assert.AnError))

	require.Len(t, w.messages, 1)
	dead := w.messages[0]
	assert.Equal(t, TopicDeadLetter, dead.Topic)
	assert.Equal(t, origin.Value, dead.Value)

	headers := map[string]string{}
	for _, h := range dead.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TopicDockingRequested, headers["origin_topic"])
	assert.Contains(t, headers["error"], assert.AnError.Error())
}
