package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"translatex/internal/logger"
)

// requestLogger logs every request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("requestID", middleware.GetReqID(r.Context())),
			logger.Int("status", sw.status),
			logger.Int64("durationMs", time.Since(start).Milliseconds()))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
