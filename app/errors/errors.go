// Package errors contains error types that carry structured metadata, and
// helpers for logging them.
package errors

import (
	"errors"
	"log/slog"
	"sort"
)

// Attrs returns the slog arguments for err: its cause first, if any, followed
// by its metadata sorted by key. It returns nil for errors that aren't a
// StructuredError.
func Attrs(err error) []any {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		return nil
	}

	args := make([]any, 0, len(serr.metadata)*2+2)

	cause := serr.metadata["cause"]
	if serr.cause != nil {
		cause = serr.cause
	}
	if cause != nil {
		args = append(args, "cause", cause)
	}

	keys := make([]string, 0, len(serr.metadata))
	for k := range serr.metadata {
		if k != "cause" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, k, serr.metadata[k])
	}

	return args
}

// Log logs an error using the default slog logger, extracting metadata if it's
// a StructuredError.
func Log(err error) {
	slog.Error(err.Error(), Attrs(err)...)
}
