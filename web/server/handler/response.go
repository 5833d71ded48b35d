package handler

import (
	"context"
	"errors"
	"net/http"

	"go.hackfix.me/reqbind/web/server/types"
	"go.hackfix.me/reqbind/xlog"
)

// ResponseProcessor processes outgoing responses and can modify the response or context.
type ResponseProcessor func(ctx context.Context, resp types.Response) (context.Context, error)

// SetHeader returns a response processor that sets a response header.
func SetHeader(key, value string) ResponseProcessor {
	return func(ctx context.Context, resp types.Response) (context.Context, error) {
		resp.GetHeader().Set(key, value)
		return ctx, nil
	}
}

func writeResponse(ctx context.Context, w http.ResponseWriter, resp types.Response) error {
	data := getResponseData(ctx)

	// Respond with at least some kind of useful response, even if it's invalid.
	var terr *types.Error
	if len(data) == 0 && errors.As(resp.GetError(), &terr) {
		data = []byte(terr.Message)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/octet-stream")
	}

	statusCode := resp.GetStatusCode()
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	w.WriteHeader(statusCode)
	_, err := w.Write(data)

	return err //nolint:wrapcheck // Wrapped by caller.
}

// WriteError writes err as a plain text response, for handlers that don't use
// Handle. The status code and message are derived from err as in Handle, and
// the message is sanitized according to lvl.
func WriteError(w http.ResponseWriter, r *http.Request, err error, lvl types.ErrorLevel) {
	ctx := r.Context()
	resp := &types.BaseResponse{}
	setResponseError(ctx, resp, err, lvl)
	resp.SetHeader(w.Header())
	if err = writeResponse(ctx, w, resp); err != nil {
		xlog.FromContext(ctx, nil).Error("failed writing response", "error", err.Error())
	}
}
