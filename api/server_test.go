package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmerge/internal/artifact"
	"salesmerge/internal/ledger"
	"salesmerge/internal/pipeline"
	"salesmerge/internal/schema"
	"salesmerge/internal/status"
	capi "salesmerge/pkg/api"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	runner := pipeline.NewRunner(
		schema.NewRegistry(),
		ledger.NewMemory(),
		artifact.NewFileStore(t.TempDir()),
		artifact.NewDirSink(t.TempDir()),
		status.DefaultThresholds(),
		2,
		logger,
	)
	return NewServer(runner, nil, logger)
}

const ingestBody = `{
	"inputs": [
		{
			"channel": "horizon",
			"name": "Horizon Sales Mar. 2024.csv",
			"sheets": [{
				"name": "Horizon Sales Mar. 2024.csv",
				"rows": [
					["Customer", "Prov", "SKU#", "SKU Description", "Quantity", "Sales"],
					["The Hop Shop", "BC", "SKU-001", "Hazy IPA 6-pack", "10", "$450.00"]
				]
			}]
		},
		{
			"channel": "shopify",
			"name": "shopify_orders.json",
			"pages": [{"orders": [{
				"id": 1001,
				"created_at": "2024-03-15T14:22:00Z",
				"total_price": "54.00",
				"customer": {"first_name": "Dana", "last_name": "Reeves"},
				"shipping_address": {"province_code": "BC"},
				"line_items": [{"name": "Pilsner 12 pk", "sku": "SKU-101", "quantity": 1}]
			}]}]
		}
	]
}`

func TestHandleIngest(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(ingestBody))
	rec := httptest.NewRecorder()
	s.handleIngest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report capi.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Inputs, 2)
	assert.Equal(t, capi.OutcomeMerged, report.Inputs[0].Outcome)
	assert.Equal(t, capi.OutcomeMerged, report.Inputs[1].Outcome)
	assert.Equal(t, 2, report.DatasetSize)
	assert.Len(t, report.Artifacts, 2)
	assert.NotEmpty(t, report.Inputs[0].Fingerprint)
}

func TestHandleIngestResubmitIsDuplicate(t *testing.T) {
	s := testServer(t)

	for i, want := range []capi.InputOutcome{capi.OutcomeMerged, capi.OutcomeDuplicate} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(ingestBody))
		rec := httptest.NewRecorder()
		s.handleIngest(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)

		var report capi.RunReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, want, report.Inputs[0].Outcome, "attempt %d", i+1)
	}
}

func TestHandleIngestBadRequests(t *testing.T) {
	s := testServer(t)

	for name, body := range map[string]string{
		"malformed json": `{"inputs": [`,
		"empty batch":    `{"inputs": []}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.handleIngest(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["error"], name)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestHandleReady(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}
