package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LogConfig
	}{
		{"defaults", DefaultLogConfig()},
		{"console format", LogConfig{Level: "debug", Format: "console", Output: "stderr"}},
		{"unknown level falls back to info", LogConfig{Level: "chatty", Format: "json", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			logger.Info("test message")
		})
	}
}

func TestMetricsRegisterAndServe(t *testing.T) {
	m := NewMetrics()
	if err := m.Register(); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	m.RecordRequest("GET", "/data", 200, 10*time.Millisecond, 0, 128)
	m.SetTableRows(42)
	m.RecordTableReload("success")
	m.RecordCalculation("no_slab")
	m.SetHealthStatus(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint status = %d", rec.Code)
	}

	body := rec.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		"payin_table_rows 42",
		"payin_table_reloads_total",
		"payin_calculations_total",
		"app_health_status 1",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
}

func TestDisabledTracerProducesNoopSpans(t *testing.T) {
	tracer, err := NewTracer(TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewTracer failed: %v", err)
	}

	ctx, span := tracer.StartSpan(context.Background(), "test_span")
	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
