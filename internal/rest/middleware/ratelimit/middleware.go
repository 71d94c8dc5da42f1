package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/striketeam/warden/internal/setup/config"
	"github.com/striketeam/warden/internal/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterTTL controls how long an idle client keeps its limiter state.
const limiterTTL = 10 * time.Minute

// Middleware implements per-client rate limiting for API requests.
type Middleware struct {
	limiters *utils.TTLMap[string, *rate.Limiter]
	config   *config.RateLimit
	logger   *zap.Logger
}

// New creates a new rate limiting middleware.
func New(config *config.RateLimit, logger *zap.Logger) *Middleware {
	return &Middleware{
		limiters: utils.NewTTLMap[string, *rate.Limiter](limiterTTL),
		config:   config,
		logger:   logger.Named("ratelimit"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		clientIP := clientIP(req.Request)

		limiter, exists := m.limiters.Get(clientIP)
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize)
			m.limiters.Set(clientIP, limiter)
		}

		if !limiter.Allow() {
			m.logger.Debug("Rate limit exceeded", zap.String("ip", clientIP))
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)

			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "rate limit exceeded"})
		}

		return next(w, req)
	}
}

// clientIP extracts the client address, honoring the first hop of
// X-Forwarded-For when the dashboard sits behind a reverse proxy.
func clientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}

		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}

	return host
}
