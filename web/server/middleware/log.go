package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"

	"go.hackfix.me/reqbind/xlog"
)

// Logger writes an access log line for each request once it's served. Server
// errors are logged at ERROR, client errors at WARN, and everything else at
// INFO. It uses the request logger from the context if there is one, so it
// should come after RequestID in the chain.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			lvl := slog.LevelInfo
			switch {
			case m.Code >= http.StatusInternalServerError:
				lvl = slog.LevelError
			case m.Code >= http.StatusBadRequest:
				lvl = slog.LevelWarn
			}

			xlog.FromContext(r.Context(), logger).Log(r.Context(), lvl,
				r.Method+" "+r.URL.RequestURI(),
				"response_code", m.Code,
				"duration", m.Duration,
				"bytes_sent", m.Written,
				"proto", r.Proto,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
