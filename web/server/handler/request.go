package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"

	"go.hackfix.me/reqbind/web/server/types"
)

// RequestProcessor processes incoming requests and can modify the request or context.
type RequestProcessor func(ctx context.Context, req types.Request) (context.Context, error)

// RequireHeader returns a request processor that binds the value of the named
// header, and fails with 400 Bad Request if it's absent. The request must
// implement types.HeaderBinder. The Host header is supported, even though
// net/http doesn't keep it in http.Request.Header.
func RequireHeader(name string) RequestProcessor {
	return bindHeader(name, true)
}

// BindHeader is like RequireHeader, but an absent header binds the empty
// string.
func BindHeader(name string) RequestProcessor {
	return bindHeader(name, false)
}

func bindHeader(name string, required bool) RequestProcessor {
	name = textproto.CanonicalMIMEHeaderKey(name)
	return func(ctx context.Context, req types.Request) (context.Context, error) {
		binder, ok := req.(types.HeaderBinder)
		if !ok {
			return ctx, fmt.Errorf("request type %T doesn't accept header values", req)
		}

		r := req.GetHTTPRequest()
		var (
			value   string
			present bool
		)
		if name == "Host" {
			value, present = r.Host, r.Host != ""
		} else {
			var values []string
			values, present = r.Header[name]
			if len(values) > 0 {
				value = values[0]
			}
		}

		if !present && required {
			return ctx, types.Errorf(http.StatusBadRequest, "missing required header %q", name)
		}

		binder.SetHeaderValue(name, value)

		return ctx, nil
	}
}

// BindCookie returns a request processor that binds the value of the named
// cookie. If required is true, an absent cookie fails the request with 400 Bad
// Request; otherwise it binds the empty string. The request must implement
// types.CookieBinder.
func BindCookie(name string, required bool) RequestProcessor {
	return func(ctx context.Context, req types.Request) (context.Context, error) {
		binder, ok := req.(types.CookieBinder)
		if !ok {
			return ctx, fmt.Errorf("request type %T doesn't accept cookie values", req)
		}

		var value string
		cookie, err := req.GetHTTPRequest().Cookie(name)
		switch {
		case errors.Is(err, http.ErrNoCookie):
			if required {
				return ctx, types.Errorf(http.StatusBadRequest, "missing required cookie %q", name)
			}
		case err != nil:
			return ctx, types.Errorf(http.StatusBadRequest, "invalid cookie %q: %s", name, err)
		default:
			value = cookie.Value
		}

		binder.SetCookieValue(name, value)

		return ctx, nil
	}
}

// BindLocale returns a request processor that resolves the client locale from
// the Accept-Language header. The request must implement types.LocaleBinder.
func BindLocale(lr *LocaleResolver) RequestProcessor {
	return func(ctx context.Context, req types.Request) (context.Context, error) {
		binder, ok := req.(types.LocaleBinder)
		if !ok {
			return ctx, fmt.Errorf("request type %T doesn't accept a locale", req)
		}

		binder.SetLocale(lr.Resolve(req.GetHTTPRequest().Header.Get("Accept-Language")))

		return ctx, nil
	}
}
