package security

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/payinhq/payin-calculator/internal/constants"
)

type RateLimiter struct {
	limiters *cache.Cache
	config   *RateLimitConfig
}

func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = constants.RateLimitCleanupInterval
	}

	// Cap the number of tracked identifiers so a flood of unique clients
	// cannot exhaust memory.
	maxCacheSize := config.MaxCacheSize
	if maxCacheSize == 0 {
		maxCacheSize = constants.RateLimitMaxCacheSize
	}

	rl := &RateLimiter{
		limiters: cache.New(config.CleanupInterval, config.CleanupInterval*2),
		config:   config,
	}

	go rl.periodicCleanup(maxCacheSize)

	return rl
}

// periodicCleanup evicts entries whenever the cache grows past maxSize.
func (rl *RateLimiter) periodicCleanup(maxSize int) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		currentSize := rl.limiters.ItemCount()
		if currentSize <= maxSize {
			continue
		}

		// Remove an extra 10% to avoid immediately re-triggering
		toRemove := currentSize - maxSize + int(float64(maxSize)*0.1)

		keys := make([]string, 0, currentSize)
		for key := range rl.limiters.Items() {
			keys = append(keys, key)
		}

		for i := 0; i < toRemove && i < len(keys); i++ {
			rl.limiters.Delete(keys[i])
		}
	}
}

func (rl *RateLimiter) Allow(identifier string, limit *RateLimit) bool {
	if !rl.config.Enabled {
		return true
	}

	limiter := rl.limiterFor(identifier, limit)
	return limiter.Allow()
}

func (rl *RateLimiter) limiterFor(identifier string, limit *RateLimit) *rate.Limiter {
	if item, found := rl.limiters.Get(identifier); found {
		return item.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rate.Limit(limit.RequestsPerSecond), limit.BurstSize)
	rl.limiters.Set(identifier, limiter, cache.DefaultExpiration)
	return limiter
}

type RateLimitStatus struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	Reset      time.Time     `json:"reset"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

func (rl *RateLimiter) GetRateLimitStatus(identifier string, limit *RateLimit) *RateLimitStatus {
	if !rl.config.Enabled {
		return &RateLimitStatus{
			Limit:     limit.RequestsPerSecond,
			Remaining: limit.BurstSize,
			Reset:     time.Now().Add(time.Minute),
		}
	}

	limiter := rl.limiterFor(identifier, limit)

	remaining := limiter.Tokens()
	if remaining < 0 {
		remaining = 0
	}

	// rate.Limiter does not expose an exact reset time, so estimate
	retryAfter := time.Duration(0)
	if remaining < 1 {
		retryAfter = time.Duration(float64(time.Second) / float64(limit.RequestsPerSecond))
	}

	return &RateLimitStatus{
		Limit:      limit.BurstSize,
		Remaining:  int(remaining),
		Reset:      time.Now().Add(time.Minute),
		RetryAfter: retryAfter,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if rl.shouldSkipRateLimit(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identifier := rl.getIdentifier(r)
		limit := rl.getRateLimit(identifier)

		if !rl.Allow(identifier, limit) {
			status := rl.GetRateLimitStatus(identifier, limit)

			w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
			w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(status.Limit))
			w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(status.Remaining))
			w.Header().Set(constants.HeaderXRateLimitReset, strconv.FormatInt(status.Reset.Unix(), 10))

			if status.RetryAfter > 0 {
				w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(int(status.RetryAfter.Seconds())))
			}

			w.WriteHeader(http.StatusTooManyRequests)

			response := map[string]interface{}{
				"error":       constants.ErrorCodeRateLimitExceeded,
				"message":     fmt.Sprintf("Rate limit exceeded. Try again in %v", status.RetryAfter),
				"code":        constants.ErrorCodeRateLimitExceeded,
				"retry_after": int(status.RetryAfter.Seconds()),
			}
			jsonResponse, _ := json.Marshal(response)
			_, _ = w.Write(jsonResponse)
			return
		}

		status := rl.GetRateLimitStatus(identifier, limit)
		w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(status.Limit))
		w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(status.Remaining))
		w.Header().Set(constants.HeaderXRateLimitReset, strconv.FormatInt(status.Reset.Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) getIdentifier(r *http.Request) string {
	if rl.config.Strategy == constants.RateLimitStrategyAPIKey {
		if apiKey := r.Header.Get(constants.HeaderXAPIKey); apiKey != "" {
			return "api_key:" + apiKey
		}
		if apiKey := r.URL.Query().Get(constants.QueryParamAPIKey); apiKey != "" {
			return "api_key:" + apiKey
		}
	}

	return "ip:" + rl.getClientIP(r)
}

func (rl *RateLimiter) getClientIP(r *http.Request) string {
	xff := r.Header.Get(constants.HeaderXForwardedFor)
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get(constants.HeaderXRealIP)
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) getRateLimit(identifier string) *RateLimit {
	if strings.HasPrefix(identifier, "api_key:") {
		key := strings.TrimPrefix(identifier, "api_key:")
		if limit, exists := rl.config.ByAPIKey[key]; exists {
			return limit
		}
	}

	if strings.HasPrefix(identifier, "ip:") && rl.config.ByIP != nil {
		return rl.config.ByIP
	}

	return &RateLimit{
		RequestsPerSecond: rl.config.Global.RequestsPerSecond,
		BurstSize:         rl.config.Global.BurstSize,
		WindowSize:        rl.config.Global.WindowSize,
	}
}

func (rl *RateLimiter) shouldSkipRateLimit(path string) bool {
	skippedPaths := []string{
		constants.PathHealth,
		constants.PathReady,
		constants.PathMetrics,
	}

	for _, skipped := range skippedPaths {
		if path == skipped {
			return true
		}
	}

	return false
}
