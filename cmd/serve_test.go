//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-enrich/internal/enrich"
	"github.com/sells-group/domain-enrich/internal/jobs"
	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/pkg/searxng"
)

type fakeSearch struct{ results []searxng.Result }

func (f *fakeSearch) Search(context.Context, string, int) ([]searxng.Result, error) {
	return f.results, nil
}

type fakeAdjudicator struct{ verdict *enrich.Adjudication }

func (f *fakeAdjudicator) Adjudicate(context.Context, model.EnrichmentRequest, []searxng.Result) (*enrich.Adjudication, error) {
	return f.verdict, nil
}

func (f *fakeAdjudicator) Model() string { return "fake/model" }

type fakeVerifier struct{ status model.VerificationStatus }

func (f *fakeVerifier) Verify(context.Context, string) model.VerificationStatus { return f.status }

// testRouter builds a router over a fully stubbed enrichment stack.
func testRouter(t *testing.T) (http.Handler, *jobs.Store) {
	t.Helper()

	engine := enrich.NewEngine(
		&fakeSearch{results: []searxng.Result{{Title: "Acme", URL: "https://acme.com", Content: "Acme homepage"}}},
		&fakeAdjudicator{verdict: &enrich.Adjudication{PrimaryDomain: "acme.com", ConfidenceScore: 0.9, Reasoning: "official site"}},
		enrich.WithVerifier(&fakeVerifier{status: model.VerificationVerified}),
	)
	rows := enrich.NewRowEnricher(engine)
	store := jobs.NewStore(0)
	runner := jobs.NewRunner(store, rows)

	return buildRouter(context.Background(), store, runner, engine, rows), store
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func awaitCompleted(t *testing.T, store *jobs.Store, jobID string) {
	t.Helper()
	done, ok := store.Done(jobID)
	require.True(t, ok)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish in time")
	}
}

func TestRouter_Health(t *testing.T) {
	router, _ := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Enrich(t *testing.T) {
	router, _ := testRouter(t)

	payload := `{"company_name":"Acme Corp","location":"Austin, TX"}`
	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result model.EnrichmentResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "acme.com", result.PrimaryDomain)
	assert.InDelta(t, 0.9, result.ConfidenceScore, 1e-9)
	assert.Equal(t, model.VerificationVerified, result.Verification)
	assert.Len(t, result.SearchQueriesUsed, 6)
}

func TestRouter_Enrich_MissingName(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`{"location":"Austin, TX"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "company_name is required")
}

func TestRouter_Enrich_BadBody(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_Lookup(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(`{"company_name":"Acme"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var row model.RowResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &row))
	assert.Equal(t, "acme.com", row.PrimaryDomain)
	assert.Equal(t, "verified", row.Status)
}

func TestRouter_UploadStatusDownload(t *testing.T) {
	router, store := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, uploadRequest(t, "file", "companies.csv", "company,location\nAcme,\"Austin, TX\"\n"))

	require.Equal(t, http.StatusAccepted, rr.Code)

	var accepted struct {
		JobID     string `json:"job_id"`
		Status    string `json:"status"`
		TotalRows int    `json:"total_rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
	assert.NotEmpty(t, accepted.JobID)
	assert.Equal(t, "pending", accepted.Status)
	assert.Equal(t, 1, accepted.TotalRows)

	awaitCompleted(t, store, accepted.JobID)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status/"+accepted.JobID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var snap model.JobSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, model.JobStatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.Progress)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "acme.com", snap.Results[0].PrimaryDomain)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/"+accepted.JobID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), accepted.JobID)
	assert.Contains(t, rr.Body.String(), "primary_domain,confidence_score,verification_status,processing_time_ms")
	assert.Contains(t, rr.Body.String(), "acme.com")
}

func TestRouter_Upload_RejectsMissingCompanyColumn(t *testing.T) {
	router, _ := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, uploadRequest(t, "file", "companies.csv", "phone,email\n555,a@b.com\n"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "error")
}

func TestRouter_Upload_RejectsMissingFileField(t *testing.T) {
	router, _ := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, uploadRequest(t, "document", "companies.csv", "company\nAcme\n"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "file field is required")
}

func TestRouter_Status_NotFound(t *testing.T) {
	router, _ := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Download_NotCompleted(t *testing.T) {
	router, _ := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, uploadRequest(t, "file", "companies.csv", "company\nAcme\n"))
	require.Equal(t, http.StatusAccepted, rr.Code)

	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))

	// Snapshot to verify the job exists, then immediately probe download.
	// The job may legitimately finish first, so only assert on the
	// not-completed branch when we actually hit it.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/"+accepted.JobID, nil))
	if rr.Code == http.StatusBadRequest {
		assert.Contains(t, rr.Body.String(), "not completed")
	} else {
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRouter_Download_NotFound(t *testing.T) {
	router, _ := testRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResolvePort_FlagSet(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
}

func TestResolvePort_FlagZero(t *testing.T) {
	assert.Equal(t, 8080, resolvePort(0, 8080))
}
