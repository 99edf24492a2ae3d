package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oldfield/dashboard/internal/middleware"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/repository/sqlite"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func setupTestRouter(t *testing.T, adminToken string) (*gin.Engine, *sqlite.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(st.Close)

	clock := func() time.Time { return handlerNow }
	healthSvc := services.NewHealthService(st, services.DefaultThresholds()).WithClock(clock)
	ingestSvc := services.NewFinanceIngestService(st).WithClock(clock)

	return NewRouter(NewHealthHandler(healthSvc, time.UTC), NewIngestHandler(ingestSvc), adminToken), st
}

// buildUpload builds a multipart request with a workbook part named "file"
// plus optional form fields.
func buildUpload(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write file content: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/ingest/finance", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestLiveness(t *testing.T) {
	router, _ := setupTestRouter(t, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSystemHealth_Empty(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system-health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system-health/table", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No manifests found.\n", w.Body.String())
}

func TestIngestFinance_ThenHealth(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	csv := "Ticker,Shares,Avg Cost\nAAPL,10,150\n,5,\n"
	req := buildUpload(t, "holdings.csv", csv, map[string]string{"account_name": "Brokerage"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.IngestReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "Brokerage", report.AccountName)
	assert.Equal(t, "holdings.csv", report.SourceRef)
	assert.Equal(t, models.ManifestStatusWarn, report.Status)
	assert.Equal(t, 1, report.PositionsInserted)
	assert.Equal(t, 1, report.Skipped)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system-health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rows []models.DomainHealth
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, models.DomainFinance, rows[0].Domain)
	assert.Equal(t, models.FreshnessFresh, rows[0].Freshness)
	assert.Equal(t, 1, rows[0].RowCount)
	require.NotNil(t, rows[0].AgeHours)
	assert.Equal(t, 0.0, *rows[0].AgeHours)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system-health/table", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FINANCE")
	assert.Contains(t, w.Body.String(), "04/01/2026, 12:00 PM")
	assert.Contains(t, w.Body.String(), "skipped=1")
}

func TestIngestFinance_SourceRefOverride(t *testing.T) {
	router, st := setupTestRouter(t, "")

	req := buildUpload(t, "upload.csv", "Symbol,Qty\nVTI,2\n", map[string]string{"source_ref": "brokerage-export"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	a, err := st.GetAccountByName(req.Context(), "Primary Portfolio")
	require.NoError(t, err)
	positions, err := st.ListPositions(req.Context(), a.ID, models.SourceSystemImportedFixture, "brokerage-export")
	require.NoError(t, err)
	assert.Len(t, positions, 1)
}

func TestIngestFinance_BadRequests(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, buildUpload(t, "", "", map[string]string{"account_name": "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, buildUpload(t, "finance.pdf", "%PDF", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "invalid_workbook"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, buildUpload(t, "broken.xlsx", "not a zip", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestFinance_AdminToken(t *testing.T) {
	router, _ := setupTestRouter(t, "s3cret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, buildUpload(t, "h.csv", "Ticker,Qty\nSPY,1\n", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := buildUpload(t, "h.csv", "Ticker,Qty\nSPY,1\n", nil)
	req.Header.Set(middleware.AdminTokenHeader, "s3cret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSystemHealth_StorageError(t *testing.T) {
	router, st := setupTestRouter(t, "")
	st.Close()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system-health", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
