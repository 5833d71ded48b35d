package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"go.hackfix.me/reqbind/web/server/types"
	"go.hackfix.me/reqbind/xlog"
)

// Handle creates an HTTP handler function that processes requests through a
// configurable pipeline. It supports generic request/response types and handles
// request binding, request/response processing, and error handling
// automatically.
//
// Unfortunately, it relies on reflection, and on passing values between
// components using the request context and type assertions. Achieving a simple
// and clear API with Go generics alone turned out to be impossible.
//
//nolint:gocognit // The complexity is a bit high, but refactoring this would hurt legibility.
func Handle[Req types.Request, Resp types.Response](
	handlerFn func(context.Context, Req) (Resp, error),
	p *Pipeline,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ctx  = r.Context()
			req  = createInstance[Req]()
			resp = createInstance[Resp]()
			err  error
		)

		req.SetHTTPRequest(r)

		// resp may be replaced by the handler, so errors are always set on the
		// current value.
		handleErr := func(err error) bool {
			return setResponseError(ctx, resp, err, p.errorLevel)
		}

		// Response handling is deferred, since it should happen in both success and
		// error scenarios.
		defer func() {
			// Allow response handlers to modify headers.
			resp.SetHeader(w.Header())

			// 5. Response serialization (optional)
			if p.serializer != nil {
				if ctx, err = p.serializer.Serialize(ctx, resp); handleErr(err) {
					ctx = setResponseData(ctx, nil)
				}
			}

			// 6. Response processing
			for _, process := range p.responseProcessors {
				ctx, err = process(ctx, resp)
				if handleErr(err) {
					break
				}
			}

			// 7. Write the response
			if err = writeResponse(ctx, w, resp); err != nil {
				xlog.FromContext(ctx, nil).Error("failed writing response", "error", err.Error())
			}
		}()

		// 1. Request deserialization (optional)
		if p.serializer != nil {
			if ctx, err = p.serializer.Deserialize(ctx, req); handleErr(err) {
				return
			}
		}

		// 2. Request validation (optional)
		if reqV, ok := any(req).(interface{ Validate() error }); ok {
			if err = reqV.Validate(); handleErr(err) {
				return
			}
		}

		// 3. Request processing
		for _, process := range p.requestProcessors {
			if ctx, err = process(ctx, req); handleErr(err) {
				return
			}
		}

		// 4. Run the handler
		handlerResp, handlerErr := handlerFn(ctx, req)
		if !isNilResponse(handlerResp) {
			resp = handlerResp
		}
		handleErr(handlerErr)
	}
}

// StreamHandlerFunc handles a request given only its body stream and the
// response body stream.
type StreamHandlerFunc func(ctx context.Context, body io.Reader, w io.Writer) error

// HandleStream creates an HTTP handler function for handlers that work
// directly with the request and response body streams. Only the pipeline's
// error level is used. If the handler fails before writing anything, the error
// is written as a plain text response.
func HandleStream(handlerFn StreamHandlerFunc, p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tw := &trackingWriter{ResponseWriter: w}

		var body io.Reader = http.NoBody
		if r.Body != nil {
			body = r.Body
		}

		err := handlerFn(ctx, body, tw)
		if err == nil {
			return
		}

		if tw.wrote {
			xlog.FromContext(ctx, nil).Warn(
				"handler failed after the response was started", "error", err.Error())
			return
		}

		WriteError(w, r, err, p.errorLevel)
	}
}

type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (tw *trackingWriter) Write(p []byte) (int, error) {
	tw.wrote = true
	return tw.ResponseWriter.Write(p) //nolint:wrapcheck // Transparent wrapper.
}

// createInstance returns a new instance of type T.
//
//nolint:ireturn,nolintlint // Required for generic functionality.
func createInstance[T any]() T {
	var zero T
	tType := reflect.TypeOf(zero)

	if tType == nil {
		panic("cannot create instance of nil interface type")
	}

	switch tType.Kind() {
	case reflect.Ptr:
		// Create new instance of the underlying type
		return reflect.New(tType.Elem()).Interface().(T) //nolint:errcheck,forcetypeassert // It's fine.
	case reflect.Interface:
		panic("cannot create instance of interface type - need concrete type")
	default:
		// For value types, return zero value directly
		return zero
	}
}

func isNilResponse(resp types.Response) bool {
	if resp == nil {
		return true
	}
	v := reflect.ValueOf(resp)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// setResponseError converts err to a *types.Error, sanitizes it according to
// errLvl, and sets it on resp along with its status code. It returns false if
// err is nil.
func setResponseError(ctx context.Context, resp types.Response, err error, errLvl types.ErrorLevel) bool {
	if err == nil {
		return false
	}

	terr := toHTTPError(err)

	logger := xlog.FromContext(ctx, nil)
	lvl := slog.LevelDebug
	if terr.StatusCode >= http.StatusInternalServerError {
		lvl = slog.LevelError
	}
	logger.Log(ctx, lvl, "request failed", "status_code", terr.StatusCode, "error", err.Error())

	terr = sanitizeError(terr, errLvl)
	resp.SetStatusCode(terr.StatusCode)
	resp.SetError(terr)

	return true
}
