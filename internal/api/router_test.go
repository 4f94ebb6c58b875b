package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledgerconv/internal/api/handlers"
	"github.com/dvloznov/ledgerconv/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerconv/internal/metrics"
	"github.com/dvloznov/ledgerconv/internal/pipeline"
)

type stubConverter struct{}

func (stubConverter) Convert(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	return &pipeline.Result{RunID: "run-1"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := inmemory.NewStore()
	m := metrics.New()
	m.ObserveConversion(metrics.StatusSuccess, 0)

	return NewRouter(Deps{
		Convert: handlers.NewConvertHandler(stubConverter{}, nil, handlers.ConvertSettings{}, zerolog.Nop()),
		Jobs:    handlers.NewJobsHandler(store, zerolog.Nop()),
		Metrics: m.Handler(),
		Log:     zerolog.Nop(),
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "converter alive"},
		{"health", http.MethodGet, "/health", http.StatusOK, `"healthy"`},
		{"convert without file", http.MethodPost, "/convert", http.StatusBadRequest, "no file"},
		{"convert wrong method", http.MethodGet, "/convert", http.StatusMethodNotAllowed, "Method not allowed"},
		{"enqueue disabled", http.MethodPost, "/api/conversions", http.StatusServiceUnavailable, "disabled"},
		{"list jobs", http.MethodGet, "/api/jobs", http.StatusOK, `"count":0`},
		{"unknown job", http.MethodGet, "/api/jobs/nope", http.StatusNotFound, "Job not found"},
		{"runs not configured", http.MethodGet, "/api/runs", http.StatusNotFound, "Not found"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "ledgerconv_conversions_total"},
		{"preflight", http.MethodOptions, "/convert", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Access-Control-Allow-Origin"), "*"))
}
