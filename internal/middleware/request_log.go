package middleware

import (
	"net/http"
	"time"

	"pet-sharing/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLog loguea cada request con status y latencia.
// Los paths de links públicos llevan el token como segmento: se loguea el
// patrón de ruta cuando existe, nunca la URL cruda, para no filtrar tokens
// en analytics.
func RequestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					path = p
				}
			}

			log.Info("http request", map[string]any{
				"method":     r.Method,
				"path":       path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"elapsed_ms": time.Since(start).Milliseconds(),
				"request_id": chimw.GetReqID(r.Context()),
			})
		})
	}
}
