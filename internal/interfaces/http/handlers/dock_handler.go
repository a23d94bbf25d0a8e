package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/pkg/errors"
)

// DockService runs one docking job to completion.
type DockService interface {
	Submit(ctx context.Context, req docking.Request) (*docking.Result, error)
}

// EventPublisher enqueues docking job events for asynchronous processing.
type EventPublisher interface {
	PublishEnvelope(ctx context.Context, key string, env *kafka.EventEnvelope) error
}

// DockHandler serves docking job submissions. Synchronous submissions block
// until the engine finishes; asynchronous ones are handed to the queue and
// acknowledged immediately.
type DockHandler struct {
	svc       DockService
	publisher EventPublisher
	logger    logging.Logger
}

func NewDockHandler(svc DockService, publisher EventPublisher, logger logging.Logger) *DockHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DockHandler{svc: svc, publisher: publisher, logger: logger}
}

func decodeDockRequest(r *http.Request) (docking.Request, error) {
	var req docking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body")
	}
	if req.SMILES == "" {
		return req, errors.New(errors.ErrCodeBadRequest, "smiles is required")
	}
	if req.TargetName == "" {
		return req, errors.New(errors.ErrCodeBadRequest, "target_name is required")
	}
	return req, nil
}

// Dock handles POST /api/v1/dock. The response carries the best score and
// the viewer links for the persisted artifacts.
func (h *DockHandler) Dock(w http.ResponseWriter, r *http.Request) {
	req, err := decodeDockRequest(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	res, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.logger.Warn("docking request failed",
			logging.String("target", req.TargetName),
			logging.Err(err))
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// AsyncDockResponse acknowledges a queued docking job.
type AsyncDockResponse struct {
	JobID      string `json:"job_id"`
	TargetName string `json:"target_name"`
	Status     string `json:"status"`
}

// DockAsync handles POST /api/v1/dock/async. The job is published to the
// docking request topic and picked up by a worker; completion is reported on
// the completed/failed topics.
func (h *DockHandler) DockAsync(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeAppError(w, errors.New(errors.ErrCodeNotImplemented, "asynchronous docking is not enabled"))
		return
	}

	req, err := decodeDockRequest(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	payload := kafka.DockingRequestedPayload{
		JobID:       uuid.NewString(),
		SMILES:      req.SMILES,
		TargetName:  req.TargetName,
		SubmittedAt: time.Now().UTC(),
	}

	env, err := kafka.NewEnvelope(kafka.EventDockingRequested, "apiserver", payload)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.publisher.PublishEnvelope(r.Context(), payload.JobID, env); err != nil {
		h.logger.Error("failed to enqueue docking job",
			logging.String("job_id", payload.JobID),
			logging.Err(err))
		writeAppError(w, err)
		return
	}

	h.logger.Info("docking job enqueued",
		logging.String("job_id", payload.JobID),
		logging.String("target", req.TargetName))

	writeJSON(w, http.StatusAccepted, AsyncDockResponse{
		JobID:      payload.JobID,
		TargetName: req.TargetName,
		Status:     "queued",
	})
}
