package observability

import "time"

// HealthStatus is the body served on /health. Status, Message, DataStatus and
// Timestamp are the fields the original deployment exposed; the rest carry
// operational detail for dashboards.
type HealthStatus struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	DataStatus string          `json:"data_status"`
	Timestamp  time.Time       `json:"timestamp"`
	Version    string          `json:"version"`
	Uptime     string          `json:"uptime"`
	Checks     map[string]bool `json:"checks"`
}

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)
