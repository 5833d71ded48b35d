package middleware

import (
	"fmt"
	"net/http"
)

// BodyLimit limits the size of request bodies to maxSize bytes. Requests that
// declare a larger Content-Length are rejected with 413 Request Entity Too
// Large before reaching the next handler; otherwise reading past the limit
// fails with *http.MaxBytesError.
func BodyLimit(maxSize int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = fmt.Fprintf(w, "request body exceeds the limit of %d bytes", maxSize)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}

			next.ServeHTTP(w, r)
		})
	}
}
