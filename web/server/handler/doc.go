// Package handler contains helpers to assemble HTTP handler implementations
// using a composable, clear, and simple API. It defines reusable components for
// binding request values (headers, cookies, locale, body), and for request and
// response processing, which allows core handlers to implement only the logic
// that is unique to each endpoint.
//
// It is similar in principle to HTTP middlewares, but using a more structured
// approach with separate components and more useful types. Binding is always
// explicit: each endpoint declares its request type, serializer and request
// processors in a Pipeline.
package handler
