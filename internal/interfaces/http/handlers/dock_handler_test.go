package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/pkg/errors"
)

type stubDockService struct {
	res   *docking.Result
	err   error
	calls int
	last  docking.Request
}

func (s *stubDockService) Submit(_ context.Context, req docking.Request) (*docking.Result, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubPublisher struct {
	envelopes []*kafka.EventEnvelope
	keys      []string
	err       error
}

func (p *stubPublisher) PublishEnvelope(_ context.Context, key string, env *kafka.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.envelopes = append(p.envelopes, env)
	return nil
}

func dockBody(smiles, target string) *strings.Reader {
	b, _ := json.Marshal(map[string]string{"smiles": smiles, "target_name": target})
	return strings.NewReader(string(b))
}

func TestDockHandler_Dock(t *testing.T) {
	svc := &stubDockService{
		res: &docking.Result{
			SMILES:     "CCO",
			TargetName: "DRD2",
			MoleculeID: "ABC",
			Score:      -7.2,
		},
	}
	h := NewDockHandler(svc, nil, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dock", dockBody("CCO", "DRD2"))
	rec := httptest.NewRecorder()
	h.Dock(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res docking.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "DRD2", res.TargetName)
	assert.Equal(t, -7.2, res.Score)

	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "CCO", svc.last.SMILES)
}

func TestDockHandler_Dock_MissingFields(t *testing.T) {
	svc := &stubDockService{}
	h := NewDockHandler(svc, nil, logging.NewNopLogger())

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing smiles", `{"target_name":"DRD2"}`},
		{"missing target", `{"smiles":"CCO"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/dock", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Dock(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, svc.calls)
		})
	}
}

func TestDockHandler_Dock_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid smiles", errors.New(errors.ErrCodeInvalidSMILES, "invalid SMILES"), http.StatusBadRequest, "CHEM_001"},
		{"unknown target", errors.New(errors.ErrCodeUnknownTarget, "unknown target"), http.StatusNotFound, "CHEM_003"},
		{"engine timeout", errors.New(errors.ErrCodeEngineTimeout, "timed out"), http.StatusGatewayTimeout, "DOCK_002"},
		{"engine failure", errors.New(errors.ErrCodeEngineFailure, "no score"), http.StatusBadGateway, "DOCK_001"},
		{"output invisible", errors.New(errors.ErrCodeStorageTimeout, "never visible"), http.StatusGatewayTimeout, "STOR_001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDockHandler(&stubDockService{err: tt.err}, nil, logging.NewNopLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/dock", dockBody("CCO", "DRD2"))
			rec := httptest.NewRecorder()
			h.Dock(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestDockHandler_DockAsync(t *testing.T) {
	pub := &stubPublisher{}
	h := NewDockHandler(&stubDockService{}, pub, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dock/async", dockBody("CCO", "DRD2"))
	rec := httptest.NewRecorder()
	h.DockAsync(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp AsyncDockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "DRD2", resp.TargetName)
	assert.Equal(t, "queued", resp.Status)

	require.Len(t, pub.envelopes, 1)
	env := pub.envelopes[0]
	assert.Equal(t, kafka.EventDockingRequested, env.EventType)
	assert.Equal(t, []string{resp.JobID}, pub.keys)

	var payload kafka.DockingRequestedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, resp.JobID, payload.JobID)
	assert.Equal(t, "CCO", payload.SMILES)
	assert.Equal(t, "DRD2", payload.TargetName)
	assert.False(t, payload.SubmittedAt.IsZero())
}

func TestDockHandler_DockAsync_QueueDisabled(t *testing.T) {
	h := NewDockHandler(&stubDockService{}, nil, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dock/async", dockBody("CCO", "DRD2"))
	rec := httptest.NewRecorder()
	h.DockAsync(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestDockHandler_DockAsync_PublishFails(t *testing.T) {
	pub := &stubPublisher{err: errors.New(errors.ErrCodeQueueError, "broker unreachable")}
	h := NewDockHandler(&stubDockService{}, pub, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dock/async", dockBody("CCO", "DRD2"))
	rec := httptest.NewRecorder()
	h.DockAsync(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
