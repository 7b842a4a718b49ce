package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/attractionmap/internal/explorer"
	"github.com/playperu/attractionmap/internal/metrics"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// sessionMiddleware resolves {session} and stores the session in the
// request context.
func sessionMiddleware(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Get(chi.URLParam(r, "session"))
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *explorer.Session {
	return r.Context().Value(ctxKeySession).(*explorer.Session)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				elapsed := time.Since(start).Milliseconds()
				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
				metrics.HTTPDurationMs.Observe(float64(elapsed))
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", elapsed,
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
