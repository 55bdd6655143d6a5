package server

import (
	"net/http"

	"github.com/payinhq/payin-calculator/internal/constants"
	"github.com/payinhq/payin-calculator/internal/server/middleware"
)

// applyMiddleware applies the complete middleware chain to the handler.
// Wrapping order is inside-out; at request time the order is: logging,
// request size limit, security headers, CORS (preflight exits here), /api
// prefix strip, rate limiting, then auth. Auth and rate limiting run after
// the prefix strip so their skip-path checks see the bare route.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	handler = s.authManager.Middleware(handler)
	handler = s.rateLimiter.Middleware(handler)

	handler = middleware.StripPrefixMiddleware(constants.PathAPIPrefix)(handler)

	if s.config.Security.CORS.Enabled {
		corsMiddleware := middleware.NewCORSMiddleware(
			s.config.Security.CORS.AllowedOrigins,
			s.config.Security.CORS.AllowedMethods,
			s.config.Security.CORS.AllowedHeaders,
			s.config.Security.CORS.AllowCredentials,
			s.config.Security.CORS.MaxAge,
		)
		handler = corsMiddleware.Handler(handler)
	}

	handler = middleware.SecurityHeadersMiddleware(s.config.Security.Headers)(handler)
	handler = middleware.RequestSizeLimitMiddleware(s.config.Server.MaxRequestSize)(handler)
	handler = middleware.LoggingMiddleware(s.logger.Logger)(handler)

	return handler
}
