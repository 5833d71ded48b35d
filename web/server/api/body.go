package api

import (
	"context"
	"io"
	"net/http"

	"go.hackfix.me/reqbind/web/server/handler"
	"go.hackfix.me/reqbind/web/server/types"
)

// BodyStringV1 reads the message body directly from the raw request as UTF-8,
// and writes the response directly to the response writer.
func (h *Handler) BodyStringV1(w http.ResponseWriter, r *http.Request) {
	body, err := handler.ReadUTF8(r.Body)
	if err != nil {
		handler.WriteError(w, r, err, h.errorLevel)
		return
	}

	h.log(r.Context()).Info("read message body", "message_body", body)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// BodyStringV2 reads the message body from the request body stream as UTF-8,
// and writes the response to the response body stream.
func (h *Handler) BodyStringV2(ctx context.Context, body io.Reader, w io.Writer) error {
	msg, err := handler.ReadUTF8(body)
	if err != nil {
		return err
	}

	h.log(ctx).Info("read message body", "message_body", msg)

	_, err = io.WriteString(w, "ok")
	return err //nolint:wrapcheck // Handled by HandleStream.
}

// BodyStringV3 receives the request as an entity, with its headers and the
// body converted to a string, and responds with an entity.
func (h *Handler) BodyStringV3(ctx context.Context, req *types.EntityRequest) (*types.TextResponse, error) {
	log := h.log(ctx)
	log.Info("read message body", "message_body", req.Body)
	log.Debug("entity headers", "headers", req.Headers())

	return types.NewTextResponse(http.StatusOK, "ok"), nil
}

// BodyStringV3V1 receives a request entity, which also exposes the request
// method and URL, and responds with 201 Created.
func (h *Handler) BodyStringV3V1(ctx context.Context, req *types.EntityRequest) (*types.TextResponse, error) {
	log := h.log(ctx)
	log.Info("read message body", "message_body", req.Body)
	log.Debug("request entity", "method", req.Method, "url", req.URL.String(),
		"headers", req.Headers())

	return types.NewTextResponse(http.StatusCreated, "ok"), nil
}

// BodyStringV4 receives only the converted message body, which is required.
func (h *Handler) BodyStringV4(ctx context.Context, req *types.TextRequest) (*types.TextResponse, error) {
	h.log(ctx).Info("read message body", "message_body", req.Body)

	return types.NewTextResponse(http.StatusOK, "ok"), nil
}
