package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regact/adapters/memstore"
	"regact/adapters/methods"
	"regact/app"
	"regact/domain/analysis"
	"regact/domain/omics"
	"regact/domain/score"
	"regact/internal/errors"
)

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()

	defaults := methods.DefaultOptions()
	defaults.MinSize = 0
	defaults.Times = 50

	store := memstore.New()
	service := app.NewRunService(store, "test")
	server := NewServer(Config{
		Defaults:          defaults,
		MaxConcurrentRuns: 2,
		Version:           "test",
	}, service)
	return server, store
}

func fixtureBody(mutate func(*decoupleRequest)) *bytes.Reader {
	weights := []float64{1, -1, 0.5, 2, 1, -1}
	req := decoupleRequest{
		Matrix: &omics.Matrix{
			Features:   []string{"g1", "g2", "g3", "g4", "g5", "g6"},
			Conditions: []string{"c1", "c2"},
			Values: [][]float64{
				{4, -1},
				{-3, 2},
				{1, 1},
				{0, -2},
				{2, 0},
				{-1, 3},
			},
		},
		Network: []edgeRecord{
			{Source: "tfA", Target: "g1", Weight: &weights[0]},
			{Source: "tfA", Target: "g2", Weight: &weights[1]},
			{Source: "tfA", Target: "g3", Weight: &weights[2]},
			{Source: "tfB", Target: "g4", Weight: &weights[3]},
			{Source: "tfB", Target: "g5", Weight: &weights[4]},
			{Source: "tfB", Target: "g6", Weight: &weights[5]},
		},
	}
	if mutate != nil {
		mutate(&req)
	}
	body, err := json.Marshal(req)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(body)
}

func doRequest(t *testing.T, server *Server, method, path string, body *bytes.Reader) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDecouple_ScoresDefaultSet(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result app.DecoupleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.Persisted)
	assert.ElementsMatch(t,
		[]string{score.StatULM, score.StatMLM, score.StatWSum, score.StatNormWSum, score.StatCorrWSum},
		result.Results.Statistics())
	require.NotNil(t, result.Manifest)
	assert.Equal(t, methods.DefaultSet, result.Manifest.Methods)
}

func TestDecouple_AppliesServerDefaults(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.DecoupleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	// Knobs the request left unset come from the server config.
	assert.Equal(t, int64(42), result.Manifest.Seed)
	assert.Equal(t, 50, result.Manifest.Times)
	assert.Equal(t, 0, result.Manifest.MinSize)
}

func TestDecouple_RequestOverridesDefaults(t *testing.T) {
	server, _ := newTestServer(t)

	seed := int64(7)
	times := 20
	rec := doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(func(req *decoupleRequest) {
		req.Methods = []string{"ulm", "wsum"}
		req.Seed = &seed
		req.Times = &times
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.DecoupleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, int64(7), result.Manifest.Seed)
	assert.Equal(t, 20, result.Manifest.Times)
	assert.Equal(t, []string{"ulm", "wsum"}, result.Manifest.Methods)
}

func TestDecouple_Rejections(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     *bytes.Reader
		wantCode string
	}{
		{
			name:     "malformed json",
			body:     bytes.NewReader([]byte("{not json")),
			wantCode: errors.CodeValidation,
		},
		{
			name:     "missing matrix",
			body:     fixtureBody(func(req *decoupleRequest) { req.Matrix = nil }),
			wantCode: errors.CodeValidation,
		},
		{
			name:     "empty network",
			body:     fixtureBody(func(req *decoupleRequest) { req.Network = nil }),
			wantCode: errors.CodeValidation,
		},
		{
			name:     "unknown method",
			body:     fixtureBody(func(req *decoupleRequest) { req.Methods = []string{"pagerank"} }),
			wantCode: errors.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, server, http.MethodPost, "/v1/decouple", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestDecouple_EmptyAfterFilterIs422(t *testing.T) {
	server, _ := newTestServer(t)

	minSize := 10
	rec := doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(func(req *decoupleRequest) {
		req.MinSize = &minSize
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, errors.CodeEmptyResult, decodeError(t, rec).Code)
}

func TestDecouple_BusyGateReturns503(t *testing.T) {
	server, _ := newTestServer(t)

	// Fill every slot so the next request bounces.
	require.True(t, server.gate.TryAcquire(int64(server.config.MaxConcurrentRuns)))
	rec := doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVER_BUSY", decodeError(t, rec).Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	server.gate.Release(int64(server.config.MaxConcurrentRuns))
	rec = doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunLifecycle_PersistFetchReport(t *testing.T) {
	server, store := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/decouple", fixtureBody(func(req *decoupleRequest) {
		req.Methods = []string{"ulm", "wsum"}
		req.Persist = true
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.DecoupleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Persisted)
	require.Equal(t, 1, store.Len())

	// Manifest fetch.
	rec = doRequest(t, server, http.MethodGet, fmt.Sprintf("/v1/runs/%s", result.RunID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var manifest analysis.RunManifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &manifest))
	assert.Equal(t, result.RunID, manifest.RunID)
	assert.Equal(t, result.Manifest.Fingerprint.Fingerprint, manifest.Fingerprint.Fingerprint)

	// Results fetch.
	rec = doRequest(t, server, http.MethodGet, fmt.Sprintf("/v1/runs/%s/results", result.RunID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results resultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Equal(t, len(result.Results), results.Count)
	assert.Equal(t, result.ResultHash, results.Results.Fingerprint())

	// Listing.
	rec = doRequest(t, server, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing listRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)

	// HTML report.
	rec = doRequest(t, server, http.MethodGet, fmt.Sprintf("/v1/runs/%s/report", result.RunID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), string(result.RunID))

	// Markdown report.
	rec = doRequest(t, server, http.MethodGet, fmt.Sprintf("/v1/runs/%s/report?format=markdown", result.RunID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Run "))
	assert.Contains(t, rec.Body.String(), "## "+score.StatULM)
	assert.Contains(t, rec.Body.String(), "## "+score.StatNormWSum)
}

func TestGetRun_UnknownIs404(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{
		"/v1/runs/nope",
		"/v1/runs/nope/results",
		"/v1/runs/nope/report",
	} {
		rec := doRequest(t, server, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, errors.CodeNotFound, decodeError(t, rec).Code, path)
	}
}

func TestListRuns_InvalidLimitIs400(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/v1/runs?limit=frog", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, decodeError(t, rec).Code)
}

func TestListMethods_DescribesRegistry(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/v1/methods", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp methodsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	names := make([]string, 0, len(resp.Methods))
	for _, m := range resp.Methods {
		names = append(names, m.Name)
		assert.NotEmpty(t, m.Description, m.Name)
		assert.NotEmpty(t, m.Preferred, m.Name)
	}
	assert.ElementsMatch(t, []string{"ulm", "mlm", "wsum", "wmean", "gsea"}, names)
	assert.Equal(t, methods.DefaultSet, resp.DefaultSet)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
}
