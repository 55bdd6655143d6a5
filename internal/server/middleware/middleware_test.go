package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/payinhq/payin-calculator/internal/security"
)

func echoPath() (http.Handler, *string) {
	var captured string
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}), &captured
}

func TestStripPrefixMiddleware(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api", "/"},
		{"/api/", "/"},
		{"/api/data", "/data"},
		{"/api/calculate", "/calculate"},
		{"/data", "/data"},
		{"/apify", "/apify"}, // not the prefix, just shares text
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			next, captured := echoPath()
			handler := StripPrefixMiddleware("/api")(next)

			req := httptest.NewRequest(http.MethodGet, tt.in, nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if *captured != tt.want {
				t.Errorf("path %s rewritten to %q, want %q", tt.in, *captured, tt.want)
			}
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader("small"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("small body rejected: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(strings.Repeat("x", 100)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body accepted: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "detail") {
		t.Error("oversized response should carry the detail envelope")
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	cfg := security.DefaultHeadersConfig()
	handler := SecurityHeadersMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'self'",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestSecurityHeadersAllowedHosts(t *testing.T) {
	cfg := security.DefaultHeadersConfig()
	cfg.AllowedHosts = []string{"api.internal"}

	handler := SecurityHeadersMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Host = "evil.example"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("unknown host accepted: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Host = "api.internal"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("allowed host rejected: %d", rec.Code)
	}
}

func TestCORSMiddlewareOriginMatching(t *testing.T) {
	cors := NewCORSMiddleware([]string{"http://allowed.example"}, []string{"GET"}, nil, false, 0)
	handler := cors.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "http://allowed.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.example" {
		t.Errorf("allowed origin not echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got CORS headers: %q", got)
	}
}
