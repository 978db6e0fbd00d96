package routes

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"deck-analysis-service/internal/config"
	"deck-analysis-service/internal/nlp"
	"deck-analysis-service/models"
	"deck-analysis-service/services"
	"deck-analysis-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	saved []*models.Analysis
}

func (m *memoryStore) Insert(_ context.Context, analysis *models.Analysis) error {
	m.saved = append(m.saved, analysis)
	return nil
}

func newTestRouter(t *testing.T, cfg *config.Config, lexicons map[string][]string) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memoryStore{}
	model := nlp.NewModelFromTerms(lexicons, 2)
	pipeline := services.NewAnalysisPipeline(cfg, model, nil, store, nil)

	router := gin.New()
	router.POST("/analyze", HandleAnalyze(cfg, pipeline))
	return router, store
}

func testRouteConfig() *config.Config {
	return &config.Config{
		AllowedExtensions: []string{".pdf", ".ppt", ".pptx"},
		MaxFileSize:       1 << 20,
		CacheSize:         8,
	}
}

// slideDeck assembles a minimal one-slide-per-text OOXML deck.
func slideDeck(t *testing.T, slideTexts ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, text := range slideTexts {
		w, err := zw.Create(fmt.Sprintf("ppt/slides/slide%d.xml", i+1))
		require.NoError(t, err)
		_, err = fmt.Fprintf(w,
			`<?xml version="1.0"?><p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`,
			text)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	router, store := newTestRouter(t, testRouteConfig(), map[string][]string{"markets": {"logistics"}})

	data := slideDeck(t, "Acme Corp builds widgets.", "Our market is logistics.")
	body, contentType := multipartUpload(t, "deck.pptx", data)

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "deck.pptx", resp.Filename)
	assert.Contains(t, resp.Entities.Organizations, "Acme Corp")
	assert.Contains(t, resp.Entities.Markets, "logistics")
	assert.NotNil(t, resp.Entities.Products)
	assert.NotNil(t, resp.Entities.Technologies)
	assert.NotNil(t, resp.KeyTopics)
	assert.Equal(t, "", resp.Summary)

	require.Len(t, store.saved, 1)

	// All four entity categories must serialize as arrays, never null.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	var entities map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["entities"], &entities))
	for _, category := range []string{"organizations", "products", "technologies", "markets"} {
		assert.NotEqual(t, "null", string(entities[category]), category)
	}
}

func TestHandleAnalyzeUnsupportedType(t *testing.T) {
	router, store := newTestRouter(t, testRouteConfig(), nil)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.ErrorCode)
	assert.NotEmpty(t, resp.Detail)
	assert.Empty(t, store.saved)
}

func TestHandleAnalyzeMissingFile(t *testing.T) {
	router, _ := newTestRouter(t, testRouteConfig(), nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.ErrorCode)
}

func TestHandleAnalyzeEmptyDeck(t *testing.T) {
	router, store := newTestRouter(t, testRouteConfig(), nil)

	data := slideDeck(t, "   ")
	body, contentType := multipartUpload(t, "deck.pptx", data)

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "empty_document", resp.ErrorCode)
	assert.Empty(t, store.saved)
}

func TestHandleAnalyzeOversizeUpload(t *testing.T) {
	cfg := testRouteConfig()
	cfg.MaxFileSize = 64
	router, _ := newTestRouter(t, cfg, nil)

	body, contentType := multipartUpload(t, "deck.pptx", bytes.Repeat([]byte("x"), 1024))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.ErrorCode)
	assert.Contains(t, resp.Detail, "exceeds")
}

func TestHandleAnalyzeCorruptUpload(t *testing.T) {
	router, _ := newTestRouter(t, testRouteConfig(), nil)

	body, contentType := multipartUpload(t, "deck.pptx", []byte("not a zip archive"))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "extraction_error", resp.ErrorCode)
}
