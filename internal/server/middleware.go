package server

import (
	"net/http"
	"time"

	"todos/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger пишет одну строку на запрос через наш logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithFields(r.Context(), "request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn(ctx, "HTTP запрос завершился ошибкой", kv...)
			return
		}
		logger.Info(ctx, "HTTP запрос", kv...)
	})
}
