package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stockcast/stockcast/internal/forecast"
)

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func tempDirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read upload dir: %v", err)
	}
	return len(entries)
}

func newForecastTestHandler(t *testing.T, upstreamURL string) (*ForecastHandler, string) {
	t.Helper()
	uploadDir := t.TempDir()
	client := forecast.NewClient(upstreamURL, 5*time.Second)
	return NewForecastHandler(client, uploadDir, 32<<20), uploadDir
}

func TestForecast_RelaysUpstreamJSON(t *testing.T) {
	upstreamBody := `{"sales":[{"ds":"2024-01-02","yhat":110.5,"yhat_lower":90.1,"yhat_upper":130.9}]}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, header, err := r.FormFile("file"); err != nil {
			t.Errorf("upstream missing file field: %v", err)
		} else if header.Filename != "sales.csv" {
			t.Errorf("expected original filename, got '%s'", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamBody))
	}))
	defer upstream.Close()

	handler, uploadDir := newForecastTestHandler(t, upstream.URL)

	body, contentType := multipartUpload(t, "file", "sales.csv", "ds,y_sales\n2024-01-01,100\n")
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Process(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != upstreamBody {
		t.Errorf("upstream body not relayed verbatim:\n%s", rec.Body.String())
	}
	if n := tempDirEntries(t, uploadDir); n != 0 {
		t.Errorf("expected no leftover temp files, found %d", n)
	}
}

func TestForecast_NoFile(t *testing.T) {
	handler, _ := newForecastTestHandler(t, "http://127.0.0.1:0")

	body, contentType := multipartUpload(t, "wrong_field", "sales.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Process(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No file uploaded.") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestForecast_EmptyBody(t *testing.T) {
	handler, _ := newForecastTestHandler(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodPost, "/api/forecast", nil)
	rec := httptest.NewRecorder()
	handler.Process(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestForecast_FileTooLarge(t *testing.T) {
	uploadDir := t.TempDir()
	client := forecast.NewClient("http://127.0.0.1:0", time.Second)
	handler := NewForecastHandler(client, uploadDir, 64)

	body, contentType := multipartUpload(t, "file", "sales.csv", strings.Repeat("x", 1024))
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Process(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Uploaded file is too large.") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if n := tempDirEntries(t, uploadDir); n != 0 {
		t.Errorf("expected no leftover temp files, found %d", n)
	}
}

func TestForecast_UpstreamFailure_CleansTempFile(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer upstream.Close()

	handler, uploadDir := newForecastTestHandler(t, upstream.URL)

	body, contentType := multipartUpload(t, "file", "sales.csv", "ds,y_sales\n2024-01-01,100\n")
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Process(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to process forecast request.") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "bad gateway") {
		t.Error("upstream details must not leak to the caller")
	}
	if n := tempDirEntries(t, uploadDir); n != 0 {
		t.Errorf("expected temp file to be removed, found %d entries", n)
	}
}

func TestForecast_UnreachableUpstream_CleansTempFile(t *testing.T) {
	handler, uploadDir := newForecastTestHandler(t, "http://127.0.0.1:1")

	body, contentType := multipartUpload(t, "file", "sales.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Process(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if n := tempDirEntries(t, uploadDir); n != 0 {
		t.Errorf("expected temp file to be removed, found %d entries", n)
	}
}

func TestForecast_RemoveUploadIdempotent(t *testing.T) {
	handler, uploadDir := newForecastTestHandler(t, "http://127.0.0.1:0")

	path := filepath.Join(uploadDir, "upload-test")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	handler.removeUpload(path)
	// Second removal of a missing file must not blow up.
	handler.removeUpload(path)
}
