package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/batch"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/convert"
	"github.com/tradedocs/tradedocs/internal/extract"
	"github.com/tradedocs/tradedocs/internal/repository"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, in extract.Input) extract.Result {
	return extract.Result{
		DocumentID: in.DocumentID,
		FileName:   in.FileName,
		Category:   constants.Tender,
		Success:    true,
		Tender: &extract.TenderFields{
			Reference: "HTTP-1",
			Title:     "Uploaded tender",
			Items: []extract.TenderLineItem{
				{ItemDescription: "Thing", Quantity: 1, Unit: "pcs"},
			},
		},
		Confidence: extract.NeutralConfidence([]string{"reference", "title"}),
	}
}

type testServer struct {
	engine    *gin.Engine
	documents repository.DocumentRepository
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenInMemory(nil)
	require.NoError(t, err)

	documents := repository.NewDocumentRepository(db, nil)
	tenders := repository.NewTenderRepository(db, nil)
	deliveries := repository.NewDeliveryRepository(db, nil)
	invoices := repository.NewInvoiceRepository(db, nil)
	drafts := repository.NewDraftRepository(db, nil)

	orchestrator := batch.NewOrchestrator(stubExtractor{}, documents, tenders, drafts, nil)
	converter := convert.NewService(tenders, deliveries, invoices, nil)

	uploadDir := t.TempDir()
	srv := New(
		common.ServerConfig{HTTPAddr: ":0", UploadDir: uploadDir},
		orchestrator, converter, documents, tenders, deliveries, invoices, nil,
	)
	return &testServer{engine: srv.Engine(), documents: documents, uploadDir: uploadDir}
}

func newTestEngine(t *testing.T) *gin.Engine {
	return newTestServer(t).engine
}

func multipartUpload(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBatchExtractUploadAndSubmit(t *testing.T) {
	engine := newTestEngine(t)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"tender-a.txt": []byte("tender text a"),
		"tender-b.txt": []byte("tender text b"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session batch.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Len(t, session.Entries, 2)
	assert.True(t, session.Entries[0].Result.Success)

	// Submit the session created above.
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batch/submit", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome batch.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, 2, outcome.TotalFiles)
	assert.Equal(t, 2, outcome.Successful)

	// A fully-submitted session is cleared.
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batch/session", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchExtractRejectsUnsupportedType(t *testing.T) {
	engine := newTestEngine(t)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"malware.exe": []byte("MZ"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestBatchExtractMixedBatchPersistsNothing(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"tender.txt":  []byte("tender text"),
		"malware.exe": []byte("MZ"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")

	// The valid file must not have been ingested.
	docs, err := ts.documents.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
	stored, err := os.ReadDir(ts.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, stored)

	rec = httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batch/session", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchExtractRejectsEmptyForm(t *testing.T) {
	engine := newTestEngine(t)

	body, contentType := multipartUpload(t, "other-field", map[string][]byte{
		"tender.txt": []byte("x"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no files uploaded")
}

func TestSessionEndpointsWithoutSession(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batch/session", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batch/submit", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsAreScopedPerOperator(t *testing.T) {
	engine := newTestEngine(t)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"tender.txt": []byte("x"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/extract", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Operator", "alice")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bob has no session.
	get := httptest.NewRequest(http.MethodGet, "/api/v1/batch/session", nil)
	get.Header.Set("X-Operator", "bob")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Alice does.
	get = httptest.NewRequest(http.MethodGet, "/api/v1/batch/session", nil)
	get.Header.Set("X-Operator", "alice")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConvertEndpointsValidation(t *testing.T) {
	engine := newTestEngine(t)

	// Unknown tender: the chain endpoint reports 404.
	payload := `{"customerId":"` + "11111111-1111-1111-1111-111111111111" + `",
		"deliveryDate":"2026-09-15","invoiceNumber":"INV-1","invoiceDate":"2026-09-20","taxRate":"10"}`
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/tenders/22222222-2222-2222-2222-222222222222/invoice",
		bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed id is a 400 before any lookup.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/tenders/not-a-uuid/invoice",
		bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
