package handler

import (
	"errors"
	"net/http"

	"go.hackfix.me/reqbind/web/server/types"
)

// toHTTPError converts err to a *types.Error with a valid status code.
func toHTTPError(err error) *types.Error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return types.Errorf(http.StatusRequestEntityTooLarge,
			"request body exceeds the limit of %d bytes", mbe.Limit)
	}

	var terr *types.Error
	if !errors.As(err, &terr) || terr == nil {
		return types.NewError(http.StatusInternalServerError, err.Error())
	}

	out := *terr
	if out.StatusCode == 0 {
		out.StatusCode = http.StatusInternalServerError
	}

	return &out
}

// sanitizeError returns a copy of terr whose message is safe to return to
// clients at the given error level.
func sanitizeError(terr *types.Error, lvl types.ErrorLevel) *types.Error {
	switch lvl {
	case types.ErrorLevelFull:
		return terr
	case types.ErrorLevelMinimal:
		if terr.StatusCode < http.StatusInternalServerError {
			return terr
		}
	case types.ErrorLevelNone:
	}

	return types.NewError(terr.StatusCode, http.StatusText(terr.StatusCode))
}
