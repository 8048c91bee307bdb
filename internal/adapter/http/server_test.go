package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/geoscore/bfg-harvest/internal/adapter/http"
	"github.com/geoscore/bfg-harvest/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockHarvester struct {
	records []domain.HarvestedRecord
	err     error
}

func (m *mockHarvester) Harvest(_ context.Context, _ domain.Request) ([]domain.HarvestedRecord, error) {
	return m.records, m.err
}

func newTestServer(readyErr error, harvester *mockHarvester) *httpadapter.Server {
	if harvester == nil {
		harvester = &mockHarvester{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, harvester, logger)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHarvestReturnsRecords(t *testing.T) {
	harvester := &mockHarvester{records: []domain.HarvestedRecord{
		{Variable: "tmp2m", Statistic: domain.StatMean, Value: 288, Region: domain.GlobalRegion()},
	}}
	srv := newTestServer(nil, harvester)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/harvest", strings.NewReader(`{
		"harvester_name": "daily_bfg",
		"filenames": ["bfg_fhr06.nc"],
		"statistic": ["mean"],
		"variable": ["tmp2m"]
	}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records []domain.HarvestedRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "tmp2m", body.Records[0].Variable)
}

func TestHarvestMalformedBody(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/harvest", strings.NewReader(`{not json`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// wrappedValidationError reproduces the shape Request.Validate returns for a
// structurally invalid request.
func wrappedValidationError() error {
	err := validator.New().Struct(struct {
		Name string `validate:"required"`
	}{})
	return fmt.Errorf("malformed harvest request: %w", err)
}

func TestHarvestErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty input", domain.ErrEmptyInput, http.StatusBadRequest},
		{"unknown variable", &domain.UnknownVariableError{Name: "x"}, http.StatusBadRequest},
		{"invalid statistic", &domain.InvalidStatisticError{Name: "median"}, http.StatusBadRequest},
		{"invalid region", &domain.InvalidRegionError{Name: "r", Reason: "bad bounds"}, http.StatusBadRequest},
		{"missing variable", &domain.MissingVariableError{File: "a.nc", Field: "tmp2m"}, http.StatusUnprocessableEntity},
		{"shape mismatch", &domain.GridShapeMismatchError{File: "a.nc"}, http.StatusUnprocessableEntity},
		{"no valid data", domain.ErrNoValidData, http.StatusUnprocessableEntity},
		{"empty timeline", domain.ErrNoTimeSteps, http.StatusUnprocessableEntity},
		{"configuration", &domain.ConfigurationError{Path: "w.nc", Reason: "bad"}, http.StatusInternalServerError},
		{"validation failure", wrappedValidationError(), http.StatusBadRequest},
		{"unclassified failure", fmt.Errorf("open bfg_fhr06.nc: permission denied"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(nil, &mockHarvester{err: tc.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/harvest", strings.NewReader(`{}`))

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
