package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.hackfix.me/reqbind/web/server/types"
)

// Headers logs the values bound from the request line and headers: the
// method, the resolved locale, the full header map, the Host header and the
// optional myCookie cookie.
func (h *Handler) Headers(ctx context.Context, req *types.BaseRequest) (*types.TextResponse, error) {
	log := h.log(ctx)
	resp := types.NewTextResponse(http.StatusOK, "ok")

	log.Info("bound request", "request", requestValue(req.GetHTTPRequest()))
	log.Info("bound response", "response", fmt.Sprintf("%T", resp))
	log.Info("bound method", "http_method", req.Method)
	log.Info("bound locale", "locale", req.Locale().String())
	log.Info("bound header map", "header_map", req.HeaderMap())
	log.Info("bound header", "header_host", req.HeaderValue("Host"))
	log.Info("bound cookie", "my_cookie", req.CookieValue("myCookie"))

	mv := url.Values{}
	mv.Add("keyA", "value1")
	mv.Add("keyA", "value2")
	log.Debug("multi-value map", "keyA", mv["keyA"])

	return resp, nil
}

// HeadersInfo returns the values bound from the request line and headers.
func (h *Handler) HeadersInfo(_ context.Context, req *types.BaseRequest) (*types.HeadersInfoResponse, error) {
	return &types.HeadersInfoResponse{
		BaseResponse: types.NewBaseResponse(http.StatusOK, nil),
		Method:       req.Method,
		Locale:       req.Locale().String(),
		Host:         req.HeaderValue("Host"),
		Cookie:       req.CookieValue("myCookie"),
		Headers:      req.HeaderMap(),
	}, nil
}

func requestValue(r *http.Request) slog.Value {
	return slog.GroupValue(
		slog.String("method", r.Method),
		slog.String("url", r.URL.String()),
		slog.String("proto", r.Proto),
		slog.String("remote_addr", r.RemoteAddr),
	)
}
