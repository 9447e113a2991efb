package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shelfwise/shelfwise-server/internal/logger"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
)

// requestLogger logs one line per request and records request metrics.
// It also puts a request-scoped logger carrying the request ID into the
// context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := s.logger.With(logger.KeyRequestID, middleware.GetReqID(r.Context()))
		r = r.WithContext(logger.IntoContext(r.Context(), reqLog))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)
		metrics.RecordAPIRequest(r.Method, route, status, duration)

		level := s.logger.Debug
		if status >= http.StatusInternalServerError {
			level = s.logger.Error
		} else if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			level = s.logger.Info
		}
		level("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", duration,
			logger.KeyRequestID, middleware.GetReqID(r.Context()),
		)
	})
}

// authorize enforces the route policy on operations that declare bearer
// security. Operations without security pass through; handlers may still
// read an optional user from context.
func (s *Server) authorize(ctx huma.Context, next func(huma.Context)) {
	op := ctx.Operation()
	if op == nil || len(op.Security) == 0 {
		next(ctx)
		return
	}

	user, ok := currentUser(ctx.Context())
	if !ok {
		_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
		return
	}

	allowed, err := s.services.Enforcer.Enforce(string(user.Role), op.Path, op.Method)
	if err != nil {
		s.logger.Error("authorization check failed", "error", err, "path", op.Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusInternalServerError, "Authorization check failed")
		return
	}
	if !allowed {
		_ = huma.WriteErr(s.api, ctx, http.StatusForbidden, "You do not have permission to perform this action")
		return
	}
	next(ctx)
}
