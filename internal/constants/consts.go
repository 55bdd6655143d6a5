package constants

import "time"

// Service identity
const (
	ServiceName = "payin-calculator"
	Version     = "1.0.0"
)

// Environment variable constants
const (
	EnvHost              = "PAYIN_HOST"
	EnvPort              = "PAYIN_PORT"
	EnvMetricsPort       = "PAYIN_METRICS_PORT"
	EnvReadTimeout       = "PAYIN_READ_TIMEOUT"
	EnvWriteTimeout      = "PAYIN_WRITE_TIMEOUT"
	EnvIdleTimeout       = "PAYIN_IDLE_TIMEOUT"
	EnvMaxRequestSize    = "PAYIN_MAX_REQUEST_SIZE"
	EnvShutdownTimeout   = "PAYIN_SHUTDOWN_TIMEOUT"
	EnvTableFile         = "PAYIN_TABLE_FILE"
	EnvTableSheet        = "PAYIN_TABLE_SHEET"
	EnvHotReload         = "PAYIN_HOT_RELOAD"
	EnvHotReloadDebounce = "PAYIN_HOT_RELOAD_DEBOUNCE"
	EnvTLSEnabled        = "PAYIN_TLS_ENABLED"
	EnvTLSCertFile       = "PAYIN_TLS_CERT_FILE"
	EnvTLSKeyFile        = "PAYIN_TLS_KEY_FILE"
)

// HTTP method constants
const (
	MethodGET     = "GET"
	MethodPOST    = "POST"
	MethodOPTIONS = "OPTIONS"
)

// HTTP header constants
const (
	HeaderAuthorization  = "Authorization"
	HeaderContentType    = "Content-Type"
	HeaderAccept         = "Accept"
	HeaderXRequestedWith = "X-Requested-With"
	HeaderOrigin         = "Origin"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXAPIKey        = "X-API-Key"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
)

// CORS headers
const (
	HeaderAccessControlAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAccessControlAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderAccessControlMaxAge           = "Access-Control-Max-Age"
)

// Authentication constants
const (
	BearerPrefix     = "Bearer "
	QueryParamAPIKey = "api_key"
)

// Rate limiting strategy constants
const (
	RateLimitStrategyIP     = "ip"
	RateLimitStrategyAPIKey = "api_key"
)

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderXRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter          = "Retry-After"
)

// Error code constants
const (
	ErrorCodeUnauthorized      = "UNAUTHORIZED"
	ErrorCodeInvalidAPIKey     = "INVALID_API_KEY"
	ErrorCodeAPIKeyExpired     = "API_KEY_EXPIRED"
	ErrorCodeAPIKeyDisabled    = "API_KEY_DISABLED"
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// API paths
const (
	PathData      = "/data"
	PathProducts  = "/products"
	PathRegions   = "/regions"
	PathCalculate = "/calculate"
	PathHealth    = "/health"
	PathReady     = "/ready"
	PathMetrics   = "/metrics"
	PathOpenAPI   = "/openapi.json"

	// PathAPIPrefix is stripped from incoming paths so the service answers the
	// same routes when deployed behind a gateway that forwards /api/*.
	PathAPIPrefix = "/api"
)

// Rate limiter internal constants
const (
	RateLimitCleanupInterval = 5 * time.Minute
	RateLimitMaxCacheSize    = 10000
)

// Server constants (not user configurable)
const (
	ServerMaxHeaderBytes = 1 << 20
)
