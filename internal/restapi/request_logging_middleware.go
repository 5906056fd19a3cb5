package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ctaboard.trainboard.dev/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// NewRequestLoggingMiddleware tags every request with an id (reusing an
// incoming X-Request-ID) and logs it once served.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			ctx := logging.WithRequestID(r.Context(), requestID)
			ctx = logging.WithLogger(ctx, logger.With(slog.String("request_id", requestID)))
			r = r.WithContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logging.LogHTTPRequest(logger,
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				float64(time.Since(start).Nanoseconds())/1e6,
				slog.String("request_id", requestID),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.String("component", "http_server"))
		})
	}
}

func logAttrRequestID(r *http.Request) slog.Attr {
	return slog.String("request_id", logging.RequestID(r.Context()))
}

func logAttrStatus(status int) slog.Attr {
	return slog.Int("status", status)
}
