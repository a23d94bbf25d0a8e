package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
)

type stubReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	// Queue drained: block until cancellation like a real reader would.
	<-ctx.Done()
	return kafka.Message{}, context.Canceled
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *stubReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *stubReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func envelopeMessage(t *testing.T, eventType string, payload interface{}) kafka.Message {
	t.Helper()
	env, err := NewEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	topic, err := TopicForEvent(eventType)
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Key: []byte("k"), Value: value}
}

func newStubConsumer(t *testing.T, reader *stubReader, deadLetter DeadLetterPublisher) *Consumer {
	t.Helper()
	c, err := NewConsumer(ConsumerConfig{
		Brokers:      []string{"localhost:9092"},
		GroupID:      "moldock-test",
		Topics:       []string{TopicDockingRequested},
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, deadLetter, logging.NewNopLogger())
	require.NoError(t, err)
	c.reader = reader
	return c
}

func TestConsumer_DispatchesToHandler(t *testing.T) {
	reader := &stubReader{queue: []kafka.Message{
		envelopeMessage(t, EventDockingRequested, DockingRequestedPayload{JobID: "job-1", SMILES: "CCO", TargetName: "DRD2"}),
	}}
	c := newStubConsumer(t, reader, nil)

	var mu sync.Mutex
	var got []string
	c.RegisterHandler(EventDockingRequested, func(_ context.Context, env *EventEnvelope) error {
		var p DockingRequestedPayload
		if err := env.DecodePayload(&p); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, p.JobID)
		mu.Unlock()
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool {
		return c.Metrics().MessagesProcessed.Load() == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())

	mu.Lock()
	assert.Equal(t, []string{"job-1"}, got)
	mu.Unlock()
	assert.Equal(t, 1, reader.commitCount())
	assert.True(t, reader.closed)
}

func TestConsumer_StartTwice(t *testing.T) {
	c := newStubConsumer(t, &stubReader{}, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, c.Stop())
}

func TestConsumer_UnhandledEventCommitted(t *testing.T) {
	reader := &stubReader{queue: []kafka.Message{
		envelopeMessage(t, EventDockingCompleted, DockingCompletedPayload{JobID: "job-1"}),
	}}
	c := newStubConsumer(t, reader, nil)

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool {
		return reader.commitCount() == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())

	assert.Zero(t, c.Metrics().MessagesProcessed.Load())
	assert.Zero(t, c.Metrics().MessagesFailed.Load())
}

type deadLetterRecorder struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (d *deadLetterRecorder) PublishDeadLetter(_ context.Context, msg kafka.Message, _ error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	return nil
}

func (d *deadLetterRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}

func TestConsumer_FailingHandlerDeadLetters(t *testing.T) {
	reader := &stubReader{queue: []kafka.Message{
		envelopeMessage(t, EventDockingRequested, DockingRequestedPayload{JobID: "job-1"}),
	}}
	dead := &deadLetterRecorder{}
	c := newStubConsumer(t, reader, dead)

	var attempts int
	var mu sync.Mutex
	c.RegisterHandler(EventDockingRequested, func(context.Context, *EventEnvelope) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return assert.AnError
	})

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool {
		return dead.count() == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
	assert.Equal(t, int64(1), c.Metrics().MessagesFailed.Load())
	assert.Equal(t, int64(1), c.Metrics().MessagesDeadLettered.Load())
	assert.Equal(t, 1, reader.commitCount())
}

func TestConsumer_UndecodableMessageDeadLetters(t *testing.T) {
	reader := &stubReader{queue: []kafka.Message{
		{Topic: TopicDockingRequested, Value: []byte("not json")},
	}}
	dead := &deadLetterRecorder{}
	c := newStubConsumer(t, reader, dead)

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool {
		return dead.count() == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())

	assert.Equal(t, 1, reader.commitCount())
}
