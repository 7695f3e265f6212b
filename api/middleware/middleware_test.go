package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

func TestUserContextFallsBackToDemoUser(t *testing.T) {
	var seen string
	handler := UserContext("demo-user", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil))
	if seen != "demo-user" {
		t.Fatalf("expected demo user, got %q", seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil)
	req.Header.Set("X-User-Id", "  user-42  ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "user-42" {
		t.Fatalf("expected header user, got %q", seen)
	}
}

func TestLoggingEchoesOrGeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})
	handler := Logging(logg)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get("X-Request-Id")
	if generated == "" {
		t.Fatalf("expected generated request id")
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"`+generated+`"`)) {
		t.Fatalf("expected request id in log line, got %s", buf.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", nil)
	req.Header.Set("X-Request-Id", "web-7f3a")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "web-7f3a" {
		t.Fatalf("expected echoed request id, got %q", rec.Header().Get("X-Request-Id"))
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})
	handler := Recoverer(logg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic.recovered")) {
		t.Fatalf("expected panic to be logged")
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))
	if !bytes.Contains(buf.Bytes(), []byte(`"status":418`)) {
		t.Fatalf("expected status in log line, got %s", buf.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://basketwise.example"})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/compare", nil)
	req.Header.Set("Origin", "https://basketwise.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://basketwise.example" {
		t.Fatalf("expected allowed origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
