package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testAuthConfig(keys ...APIKeyConfig) *AuthConfig {
	cfg := DefaultAuthConfig()
	cfg.Enabled = true
	cfg.Keys = keys
	return &cfg
}

func TestGenerateAPIKey(t *testing.T) {
	am := NewAuthManager(testAuthConfig())

	key, err := am.GenerateAPIKey("test-key")
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	if key.Key == "" {
		t.Error("generated key should not be empty")
	}
	if key.Name != "test-key" {
		t.Errorf("expected name test-key, got %s", key.Name)
	}
	if !key.Enabled {
		t.Error("generated key should be enabled")
	}
}

func TestValidateAPIKey(t *testing.T) {
	am := NewAuthManager(testAuthConfig(APIKeyConfig{
		Key:       "valid-key",
		Name:      "test",
		Enabled:   true,
		CreatedAt: time.Now(),
	}))

	if _, err := am.ValidateAPIKey("valid-key"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if _, err := am.ValidateAPIKey("wrong-key"); err == nil {
		t.Error("invalid key accepted")
	}
}

func TestValidateDisabledAPIKey(t *testing.T) {
	am := NewAuthManager(testAuthConfig(APIKeyConfig{
		Key:     "disabled-key",
		Name:    "test",
		Enabled: false,
	}))

	if _, err := am.ValidateAPIKey("disabled-key"); err == nil {
		t.Error("disabled key accepted")
	}
}

func TestValidateExpiredAPIKey(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	am := NewAuthManager(testAuthConfig(APIKeyConfig{
		Key:       "expired-key",
		Name:      "test",
		Enabled:   true,
		ExpiresAt: &expired,
	}))

	if _, err := am.ValidateAPIKey("expired-key"); err == nil {
		t.Error("expired key accepted")
	}
}

func TestRevokeAPIKey(t *testing.T) {
	am := NewAuthManager(testAuthConfig(APIKeyConfig{
		Key:     "revoke-me",
		Name:    "test",
		Enabled: true,
	}))

	if err := am.RevokeAPIKey("revoke-me"); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}
	if _, err := am.ValidateAPIKey("revoke-me"); err == nil {
		t.Error("revoked key accepted")
	}
	if err := am.RevokeAPIKey("never-existed"); err == nil {
		t.Error("revoking an unknown key should fail")
	}
}

func TestExtractAPIKey(t *testing.T) {
	am := NewAuthManager(testAuthConfig())

	tests := []struct {
		name  string
		setup func(*http.Request)
		want  string
	}{
		{
			name:  "header",
			setup: func(r *http.Request) { r.Header.Set("X-API-Key", "header-key") },
			want:  "header-key",
		},
		{
			name:  "query parameter",
			setup: func(r *http.Request) { r.URL.RawQuery = "api_key=query-key" },
			want:  "query-key",
		},
		{
			name:  "bearer token",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer bearer-key") },
			want:  "bearer-key",
		},
		{
			name:  "none",
			setup: func(r *http.Request) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/data", nil)
			tt.setup(req)
			if got := am.ExtractAPIKey(req); got != tt.want {
				t.Errorf("ExtractAPIKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	am := NewAuthManager(testAuthConfig(APIKeyConfig{
		Key:     "valid-key",
		Name:    "test",
		Enabled: true,
	}))

	handler := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		path       string
		key        string
		wantStatus int
	}{
		{"valid key", "/data", "valid-key", http.StatusOK},
		{"invalid key", "/data", "wrong-key", http.StatusUnauthorized},
		{"missing key", "/data", "", http.StatusUnauthorized},
		{"health skips auth", "/health", "", http.StatusOK},
		{"ready skips auth", "/ready", "", http.StatusOK},
		{"contract skips auth", "/openapi.json", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	cfg := DefaultAuthConfig()
	am := NewAuthManager(&cfg)

	handler := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth should pass requests through, got %d", rec.Code)
	}
}
