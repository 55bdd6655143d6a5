package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/payinhq/payin-calculator/internal/constants"
)

// Config contains security-related configuration
type Config struct {
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Headers   HeadersConfig   `json:"headers" yaml:"headers"`
	CORS      CORSConfig      `json:"cors" yaml:"cors"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled        bool           `json:"enabled" yaml:"enabled"`
	HeaderName     string         `json:"header_name" yaml:"header_name"`
	QueryParamName string         `json:"query_param_name" yaml:"query_param_name"`
	Keys           []APIKeyConfig `json:"keys" yaml:"keys"`
}

// APIKeyConfig represents an API key configuration
type APIKeyConfig struct {
	Key       string            `json:"key" yaml:"key"`
	Name      string            `json:"name" yaml:"name"`
	Enabled   bool              `json:"enabled" yaml:"enabled"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata" yaml:"metadata"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool                  `json:"enabled" yaml:"enabled"`
	Strategy        string                `json:"strategy" yaml:"strategy"` // "api_key", "ip"
	Global          *RateLimit            `json:"global" yaml:"global"`
	ByAPIKey        map[string]*RateLimit `json:"by_api_key" yaml:"by_api_key"`
	ByIP            *RateLimit            `json:"by_ip" yaml:"by_ip"`
	CleanupInterval time.Duration         `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxCacheSize    int                   `json:"max_cache_size" yaml:"max_cache_size"`
}

// RateLimit contains rate limit settings for a specific entity
type RateLimit struct {
	RequestsPerSecond int           `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	WindowSize        time.Duration `json:"window_size" yaml:"window_size"`
}

// HeadersConfig contains security headers configuration
type HeadersConfig struct {
	Enabled               bool     `json:"enabled" yaml:"enabled"`
	ContentSecurityPolicy string   `json:"content_security_policy" yaml:"content_security_policy"`
	HSTSMaxAge            int      `json:"hsts_max_age" yaml:"hsts_max_age"`
	AllowedHosts          []string `json:"allowed_hosts" yaml:"allowed_hosts"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `json:"max_age" yaml:"max_age"`
}

// DefaultConfig returns default security configuration. Auth and rate
// limiting ship disabled; CORS ships enabled because the upstream deployment
// sends CORS headers on every response.
func DefaultConfig() Config {
	return Config{
		Auth:      DefaultAuthConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Headers:   DefaultHeadersConfig(),
		CORS:      DefaultCORSConfig(),
	}
}

// DefaultAuthConfig returns default authentication configuration
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled:        false,
		HeaderName:     constants.HeaderXAPIKey,
		QueryParamName: constants.QueryParamAPIKey,
		Keys:           []APIKeyConfig{},
	}
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:  false,
		Strategy: constants.RateLimitStrategyIP,
		Global: &RateLimit{
			RequestsPerSecond: 100,
			BurstSize:         200,
			WindowSize:        time.Minute,
		},
		ByAPIKey: make(map[string]*RateLimit),
		ByIP: &RateLimit{
			RequestsPerSecond: 60,
			BurstSize:         120,
			WindowSize:        time.Minute,
		},
		CleanupInterval: constants.RateLimitCleanupInterval,
		MaxCacheSize:    constants.RateLimitMaxCacheSize,
	}
}

// DefaultHeadersConfig returns default security headers configuration
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		Enabled:               true,
		ContentSecurityPolicy: "default-src 'self'",
		HSTSMaxAge:            31536000, // 1 year
		AllowedHosts:          []string{},
	}
}

// DefaultCORSConfig returns default CORS configuration. The methods and
// headers mirror the upstream deployment exactly: GET, POST, OPTIONS and
// Content-Type, Authorization.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{constants.MethodGET, constants.MethodPOST, constants.MethodOPTIONS},
		AllowedHeaders:   []string{constants.HeaderContentType, constants.HeaderAuthorization},
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
	}
}

// Validate validates the security configuration
func (c *Config) Validate() error {
	var errs []error

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth config validation failed: %w", err))
	}
	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate limit config validation failed: %w", err))
	}
	if err := c.Headers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("security headers config validation failed: %w", err))
	}
	if err := c.CORS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("CORS config validation failed: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate validates the authentication configuration
func (a *AuthConfig) Validate() error {
	if a.Enabled {
		if a.HeaderName == "" && a.QueryParamName == "" {
			return errors.New("either header_name or query_param_name must be set")
		}
	}
	return nil
}

// Validate validates the rate limit configuration
func (r *RateLimitConfig) Validate() error {
	var errs []error

	if r.Enabled {
		if r.Strategy != constants.RateLimitStrategyIP && r.Strategy != constants.RateLimitStrategyAPIKey {
			errs = append(errs, errors.New("strategy must be one of: ip, api_key"))
		}

		if r.Global == nil {
			errs = append(errs, errors.New("global rate limit must be set when rate limiting is enabled"))
		} else if err := r.Global.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("global rate limit validation failed: %w", err))
		}

		if r.ByIP != nil {
			if err := r.ByIP.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("by_ip rate limit validation failed: %w", err))
			}
		}

		for key, limit := range r.ByAPIKey {
			if limit != nil {
				if err := limit.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("by_api_key[%s] rate limit validation failed: %w", key, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate validates the rate limit configuration for a specific entity
func (l *RateLimit) Validate() error {
	if l.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if l.BurstSize <= 0 {
		return fmt.Errorf("burst_size must be positive")
	}
	if l.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive")
	}
	return nil
}

// Validate validates the security headers configuration
func (h *HeadersConfig) Validate() error {
	if h.Enabled {
		if h.HSTSMaxAge < 0 {
			return fmt.Errorf("hsts_max_age must be non-negative")
		}
	}
	return nil
}

// Validate validates the CORS configuration
func (c *CORSConfig) Validate() error {
	if c.Enabled {
		if len(c.AllowedOrigins) == 0 {
			return fmt.Errorf("allowed_origins must not be empty")
		}
		if len(c.AllowedMethods) == 0 {
			return fmt.Errorf("allowed_methods must not be empty")
		}
		for _, origin := range c.AllowedOrigins {
			if origin == "" {
				return fmt.Errorf("allowed_origins cannot contain empty strings")
			}
		}
		if c.MaxAge < 0 {
			return fmt.Errorf("max_age must be non-negative")
		}
	}
	return nil
}
