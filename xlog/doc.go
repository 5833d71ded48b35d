// Package xlog contains small extensions to log/slog used across the
// application: a TRACE level below DEBUG, and helpers for carrying a
// request-scoped logger in a context.
package xlog
