package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/moldock/internal/application/docking"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	appmetrics "github.com/turtacn/moldock/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/moldock/internal/interfaces/http/handlers"
)

type okDockService struct{}

func (okDockService) Submit(_ context.Context, req docking.Request) (*docking.Result, error) {
	return &docking.Result{
		SMILES:     req.SMILES,
		TargetName: req.TargetName,
		MoleculeID: "TESTID",
		Score:      -6.5,
	}, nil
}

type emptyReader struct{}

func (emptyReader) Await(_ context.Context, _ string) ([]byte, error) {
	return []byte("END\n"), nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(RouterConfig{
		DockHandler:      handlers.NewDockHandler(okDockService{}, nil, logging.NewNopLogger()),
		StructureHandler: handlers.NewStructureHandler(emptyReader{}, logging.NewNopLogger()),
		HealthHandler:    handlers.NewHealthHandler("test"),
		Logger:           logging.NewNopLogger(),
		Metrics:          appmetrics.NewAppMetrics(reg),
		MetricsGatherer:  reg,
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"liveness", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readiness", http.MethodGet, "/readyz", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"dock", http.MethodPost, "/api/v1/dock", `{"smiles":"CCO","target_name":"DRD2"}`, http.StatusOK},
		{"structures", http.MethodGet, "/api/v1/structures?structure_type=ligand&target=DRD2&molecule_id=X", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nonexistent", "", http.StatusNotFound},
		{"dock wrong method", http.MethodGet, "/api/v1/dock", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/structures", nil)
	req.Header.Set("Origin", "https://viewer.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
}

func TestRouter_StructureResponseAllowsCrossOrigin(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/structures?structure_type=ligand&target=DRD2&molecule_id=X", nil)
	req.Header.Set("Origin", "https://viewer.example.com")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
