// Package api contains the HTTP endpoint handlers. Each endpoint shows a
// different way of binding request values: raw request and response, body
// streams, request entities, converted text bodies, headers, cookies and the
// client locale.
package api

import (
	"context"
	"log/slog"
	"net/http"

	actx "go.hackfix.me/reqbind/app/context"
	"go.hackfix.me/reqbind/web/server/handler"
	"go.hackfix.me/reqbind/web/server/middleware"
	"go.hackfix.me/reqbind/web/server/types"
	"go.hackfix.me/reqbind/xlog"
)

// Options configures the API handlers.
type Options struct {
	ErrorLevel types.ErrorLevel
	Locales    *handler.LocaleResolver
	// Metrics, if set, instruments every route and serves GET /metrics.
	Metrics *middleware.Metrics
}

// Handler is the API endpoint handler.
type Handler struct {
	appCtx     *actx.Context
	logger     *slog.Logger
	errorLevel types.ErrorLevel
	metrics    *middleware.Metrics

	textPipeline         *handler.Pipeline
	requiredTextPipeline *handler.Pipeline
	headersPipeline      *handler.Pipeline
	headersJSONPipeline  *handler.Pipeline
}

// Route is an API endpoint.
type Route struct {
	// Method is the HTTP method the route accepts, or empty for any method.
	Method  string
	Path    string
	Summary string
	Handler http.Handler
}

// Pattern returns the http.ServeMux pattern of the route.
func (r Route) Pattern() string {
	if r.Method == "" {
		return r.Path
	}
	return r.Method + " " + r.Path
}

// New returns a new API handler.
func New(appCtx *actx.Context, logger *slog.Logger, opts Options) *Handler {
	base := handler.NewPipeline().
		ErrorLevel(opts.ErrorLevel).
		ProcessResponse(handler.SetHeader("Cache-Control", "no-store"))

	bindHeaders := []handler.RequestProcessor{
		handler.BindLocale(opts.Locales),
		handler.RequireHeader("Host"),
		handler.BindCookie("myCookie", false),
	}

	return &Handler{
		appCtx:     appCtx,
		logger:     logger,
		errorLevel: opts.ErrorLevel,
		metrics:    opts.Metrics,

		textPipeline:         base.Clone().Serializer(handler.Text()),
		requiredTextPipeline: base.Clone().Serializer(handler.Text(handler.BodyRequired())),
		headersPipeline: base.Clone().Serializer(handler.Text()).
			ProcessRequest(bindHeaders...),
		headersJSONPipeline: base.Clone().Serializer(handler.JSON()).
			ProcessRequest(bindHeaders...),
	}
}

// Routes returns all API routes.
func (h *Handler) Routes() []Route {
	routes := []Route{
		{
			Path:    "/log-test",
			Summary: "Log a message at every level",
			Handler: handler.Handle(h.LogTest, h.textPipeline),
		},
		{
			Path:    "/headers",
			Summary: "Bind method, locale, headers, Host and myCookie",
			Handler: handler.Handle(h.Headers, h.headersPipeline),
		},
		{
			Path:    "/headers/info",
			Summary: "Return the bound header values as JSON",
			Handler: handler.Handle(h.HeadersInfo, h.headersJSONPipeline),
		},
		{
			Method:  http.MethodPost,
			Path:    "/request-body-string-v1",
			Summary: "Read the body from the raw request",
			Handler: http.HandlerFunc(h.BodyStringV1),
		},
		{
			Method:  http.MethodPost,
			Path:    "/request-body-string-v2",
			Summary: "Read the body from the request stream",
			Handler: handler.HandleStream(h.BodyStringV2, h.textPipeline),
		},
		{
			Method:  http.MethodPost,
			Path:    "/request-body-string-v3",
			Summary: "Read the body from an entity",
			Handler: handler.Handle(h.BodyStringV3, h.textPipeline),
		},
		{
			Method:  http.MethodPost,
			Path:    "/request-body-string-v3-v1",
			Summary: "Read the body from a request entity, respond 201",
			Handler: handler.Handle(h.BodyStringV3V1, h.textPipeline),
		},
		{
			Method:  http.MethodPost,
			Path:    "/request-body-string-v4",
			Summary: "Read the required body converted to a string",
			Handler: handler.Handle(h.BodyStringV4, h.requiredTextPipeline),
		},
	}

	if h.metrics != nil {
		routes = append(routes, Route{
			Method:  http.MethodGet,
			Path:    "/metrics",
			Summary: "Prometheus metrics",
			Handler: h.metrics.Handler(),
		})
	}

	return routes
}

// SetupHandlers configures the API handlers.
func SetupHandlers(appCtx *actx.Context, logger *slog.Logger, opts Options) http.Handler {
	h := New(appCtx, logger, opts)
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		rh := route.Handler
		if opts.Metrics != nil {
			rh = opts.Metrics.Instrument(route.Path)(rh)
		}
		mux.Handle(route.Pattern(), rh)
	}

	return mux
}

func (h *Handler) log(ctx context.Context) *slog.Logger {
	return xlog.FromContext(ctx, h.logger)
}
