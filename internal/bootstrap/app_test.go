package bootstrap_test

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

	"jsonlify-backend/internal/bootstrap"
	"jsonlify-backend/internal/shared/config"
)

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "guest-test-1")
}

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func TestHealthNeedsNoAuth(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestJobsRequireIdentity(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
}

func TestUploadConvertAndFetchResult(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	// Upload a plain-text document.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("Hello\nWorld")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var uploaded struct {
		FileKey string `json:"fileKey"`
		FileURL string `json:"fileUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload: %v", err)
	}

	// Register a conversion job for the uploaded file.
	payload, _ := json.Marshal(map[string]any{
		"jobType":  "document",
		"fileName": "notes.txt",
		"fileKey":  uploaded.FileKey,
		"mimeType": "text/plain",
	})
	reqJob := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(payload))
	reqJob.Header.Set("Content-Type", "application/json")
	addGuestHeader(reqJob)
	respJob := httptest.NewRecorder()
	router.ServeHTTP(respJob, reqJob)
	if respJob.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", respJob.Code, respJob.Body.String())
	}

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(respJob.Body).Decode(&created); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("expected pending at creation, got %s", created.Status)
	}

	// Processing runs on a background goroutine; poll until terminal.
	var final struct {
		Status   string `json:"status"`
		JSONLURL string `json:"jsonlUrl"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/1", nil)
		addGuestHeader(reqGet)
		respGet := httptest.NewRecorder()
		router.ServeHTTP(respGet, reqGet)
		if respGet.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", respGet.Code)
		}
		if err := json.NewDecoder(respGet.Body).Decode(&final); err != nil {
			t.Fatalf("decode job status: %v", err)
		}
		if final.Status == "completed" || final.Status == "failed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %s", final.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if final.Status != "completed" {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if !strings.Contains(final.JSONLURL, "/api/v1/files/jobs/1/") {
		t.Fatalf("unexpected jsonl url %q", final.JSONLURL)
	}

	// The result artifact is served back through the files endpoint.
	path := final.JSONLURL[strings.Index(final.JSONLURL, "/api/v1/files/"):]
	reqFile := httptest.NewRequest(http.MethodGet, path, nil)
	addGuestHeader(reqFile)
	respFile := httptest.NewRecorder()
	router.ServeHTTP(respFile, reqFile)
	if respFile.Code != http.StatusOK {
		t.Fatalf("expected 200 for result fetch, got %d", respFile.Code)
	}
	if got := respFile.Body.String(); got != `{"page":1,"content":"Hello\nWorld"}` {
		t.Fatalf("unexpected jsonl body %q", got)
	}
}
