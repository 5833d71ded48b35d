package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nrednav/cuid2"

	"go.hackfix.me/reqbind/xlog"
)

// RequestIDHeader is the header used to receive and return request IDs.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID assigns an ID to each request. A valid CUID received in the
// X-Request-ID header is reused, otherwise a new one is generated. The ID is
// returned in the response X-Request-ID header, and a logger with a request_id
// attribute is stored in the request context.
func RequestID(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !cuid2.IsCuid(id) {
				id = cuid2.Generate()
			}

			w.Header().Set(RequestIDHeader, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			ctx = xlog.WithLogger(ctx, logger.With("request_id", id))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the ID assigned to the request by RequestID.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
