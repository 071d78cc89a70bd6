package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"abc-dashboard/internal/database"
	"abc-dashboard/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("test"))
	})

	middleware := LoggingMiddleware(logger)(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	middleware.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}

	if w.Body.String() != "test" {
		t.Errorf("Expected body 'test', got '%s'", w.Body.String())
	}

	line := buf.String()
	if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "status=418") || !strings.Contains(line, "path=/test") {
		t.Errorf("Unexpected log line: %s", line)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	middleware := RecoveryMiddleware(discardLogger())(panicHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	// Should not panic and should return 500
	middleware.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), "Internal Server Error") {
		t.Error("Expected error message in response body")
	}
}

func TestContentTypeMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := ContentTypeMiddleware(handler)

	tests := []struct {
		path        string
		expectJSON  bool
		description string
	}{
		{"/api/dogs", true, "API route should get JSON content type"},
		{"/api/health", true, "API health route should get JSON content type"},
		{"/", false, "Non-API route should not get JSON content type"},
		{"/static/style.css", false, "Static route should not get JSON content type"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			contentType := w.Header().Get("Content-Type")
			if tt.expectJSON {
				if contentType != "application/json" {
					t.Errorf("Expected JSON content type for %s, got '%s'", tt.path, contentType)
				}
			} else {
				if contentType == "application/json" {
					t.Errorf("Did not expect JSON content type for %s, got '%s'", tt.path, contentType)
				}
			}
		})
	}
}

func TestSecurityMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := SecurityMiddleware(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	middleware.ServeHTTP(w, req)

	expectedHeaders := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
	}

	for header, expectedValue := range expectedHeaders {
		if w.Header().Get(header) != expectedValue {
			t.Errorf("Expected header %s to be '%s', got '%s'", header, expectedValue, w.Header().Get(header))
		}
	}
}

func TestSessionMiddleware(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	sessions := session.NewManager(db.Sessions, session.Config{
		Username: "admin", Password: "secret", TTL: time.Hour, LoginPerMin: 60, LoginBurst: 5,
	}, discardLogger())

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = session.Username(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	middleware := SessionMiddleware(sessions, discardLogger())(handler)

	live, err := sessions.Login("127.0.0.1", "admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	expired, err := db.Sessions.Create("admin", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to create expired session: %v", err)
	}

	tests := []struct {
		name           string
		setup          func(r *http.Request)
		expectedStatus int
	}{
		{"No token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"Unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"Expired token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired.ID) }, http.StatusUnauthorized},
		{"Bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+live.ID) }, http.StatusOK},
		{"Cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: session.CookieName, Value: live.ID}) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest("GET", "/api/dogs", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusOK && seen != "admin" {
				t.Errorf("Expected session user 'admin' in context, got '%s'", seen)
			}
		})
	}
}

func TestIsAPIRoute(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/api/dogs", true},
		{"/api/health", true},
		{"/api", false}, // Too short
		{"/", false},
		{"/static/style.css", false},
		{"/about", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := isAPIRoute(tt.path)
			if result != tt.expected {
				t.Errorf("Expected isAPIRoute(%s) to be %t, got %t", tt.path, tt.expected, result)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	wrapper := &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}

	// Test default status code
	if wrapper.statusCode != http.StatusOK {
		t.Errorf("Expected default status 200, got %d", wrapper.statusCode)
	}

	// Test WriteHeader
	wrapper.WriteHeader(http.StatusNotFound)
	if wrapper.statusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", wrapper.statusCode)
	}
}
