// Package kafka carries docking jobs between the API server and the worker
// fleet.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// Topic constants
const (
	TopicDockingRequested = "docking.requested"
	TopicDockingCompleted = "docking.completed"
	TopicDockingFailed    = "docking.failed"
	TopicDeadLetter       = "docking.dead_letter"
)

// Event type constants, carried inside the envelope.
const (
	EventDockingRequested = "docking.job.requested"
	EventDockingCompleted = "docking.job.completed"
	EventDockingFailed    = "docking.job.failed"
)

// EventEnvelope standardises event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// DockingRequestedPayload enqueues one asynchronous docking job.
type DockingRequestedPayload struct {
	JobID       string    `json:"job_id"`
	SMILES      string    `json:"smiles"`
	TargetName  string    `json:"target_name"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// DockingCompletedPayload reports a finished job.
type DockingCompletedPayload struct {
	JobID       string    `json:"job_id"`
	TargetName  string    `json:"target_name"`
	MoleculeID  string    `json:"molecule_id"`
	Score       float64   `json:"docking_score"`
	LigandLink  string    `json:"ligand_link"`
	ComplexLink string    `json:"complex_link"`
	CompletedAt time.Time `json:"completed_at"`
}

// DockingFailedPayload reports a failed job with its typed error code.
type DockingFailedPayload struct {
	JobID      string    `json:"job_id"`
	TargetName string    `json:"target_name"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	FailedAt   time.Time `json:"failed_at"`
}

// NewEnvelope wraps payload in a versioned envelope with a fresh event ID.
func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into dest.
func (e *EventEnvelope) DecodePayload(dest interface{}) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decode event payload")
	}
	return nil
}

// TopicForEvent routes an event type to its topic.
func TopicForEvent(eventType string) (string, error) {
	switch eventType {
	case EventDockingRequested:
		return TopicDockingRequested, nil
	case EventDockingCompleted:
		return TopicDockingCompleted, nil
	case EventDockingFailed:
		return TopicDockingFailed, nil
	}
	return "", apperrors.New(apperrors.ErrCodeValidation, "unknown event type "+eventType)
}
