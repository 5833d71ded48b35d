package middleware

import (
	"fmt"
	"net/http"
)

// Middleware wraps an http.Handler with additional behavior, such as request
// IDs, logging or body size limits.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares and a final handler in the order given, so that
// the first item is the outermost one. Items must be Middleware or
// http.Handler values. A handler ends the chain: any items after it are never
// reached.
func Chain(items ...any) http.Handler {
	var result http.Handler = http.NotFoundHandler()

	for i := len(items) - 1; i >= 0; i-- {
		switch v := items[i].(type) {
		case Middleware:
			result = v(result)
		case http.Handler:
			result = v
		default:
			panic(fmt.Sprintf("Chain accepts only Middleware or http.Handler values, got %T", v))
		}
	}

	return result
}
