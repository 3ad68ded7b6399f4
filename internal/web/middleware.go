package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ryabkov82/xlsx-splitter/internal/logging"
)

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()

		ctx := logging.WithRequestID(r.Context(), id)
		entry := logging.FromContext(ctx).WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
		})
		ctx = logging.WithEntry(ctx, entry)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("X-Request-ID", id)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry.WithFields(log.Fields{
			"status":   status,
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	})
}
