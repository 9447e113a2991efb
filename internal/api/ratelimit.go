package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/httprate"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
)

// aiRoutes are the paths that call the generative model.
var aiRoutes = map[string]bool{
	"/api/v1/chat":       true,
	"/api/v1/ai/suggest": true,
}

// aiRateLimit limits model-backed routes to perMinute requests per caller.
// Other routes pass through untouched.
func (s *Server) aiRateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limit := httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(aiRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues("ai").Inc()
			s.logger.Warn("AI rate limit exceeded", "key", mustRateKey(r), "path", r.URL.Path)
			writeErrorEnvelope(w, http.StatusTooManyRequests, string(domainerrors.CodeRateLimited),
				"Too many AI requests. Please try again later.")
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && aiRoutes[r.URL.Path] {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// aiRateKey keys signed-in callers by user and anonymous callers by address.
func aiRateKey(r *http.Request) (string, error) {
	if userID := optionalUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return "ip:" + getClientIP(r), nil
}

func mustRateKey(r *http.Request) string {
	key, _ := aiRateKey(r)
	return key
}

// loginRateLimit is a huma middleware throttling login attempts per client IP.
func (s *Server) loginRateLimit(ctx huma.Context, next func(huma.Context)) {
	r, _ := humachi.Unwrap(ctx)
	key := getClientIP(r)
	if !s.loginLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests,
			"Too many login attempts. Please try again later.")
		return
	}
	next(ctx)
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For may contain multiple IPs, first is client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (strip port).
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
