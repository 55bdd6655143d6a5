package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/payinhq/payin-calculator/internal/constants"
	"github.com/payinhq/payin-calculator/internal/observability"
)

// ObservabilityConfig contains observability-related configuration
type ObservabilityConfig struct {
	Logging observability.LogConfig     `json:"logging" yaml:"logging"`
	Metrics MetricsConfig               `json:"metrics" yaml:"metrics"`
	Tracing observability.TracingConfig `json:"tracing" yaml:"tracing"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// DefaultObservabilityConfig returns default observability configuration
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Logging: observability.DefaultLogConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    constants.PathMetrics,
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			ServiceName: constants.ServiceName,
			Version:     constants.Version,
			Environment: "production",
		},
	}
}

// Validate validates the observability configuration
func (o *ObservabilityConfig) Validate() error {
	var errs []error

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(o.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error"))
	}

	validFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validFormats[strings.ToLower(o.Logging.Format)] {
		errs = append(errs, fmt.Errorf("logging.format must be one of: json, console"))
	}

	if o.Logging.Output == "" {
		errs = append(errs, errors.New("logging.output cannot be empty"))
	}

	if o.Metrics.Enabled {
		if o.Metrics.Path == "" {
			errs = append(errs, errors.New("metrics.path cannot be empty when metrics are enabled"))
		} else if !strings.HasPrefix(o.Metrics.Path, "/") {
			errs = append(errs, errors.New("metrics.path must start with /"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
