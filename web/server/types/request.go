package types

import (
	"net/http"
	"net/textproto"

	"golang.org/x/text/language"
)

// Request defines the interface for HTTP request wrappers.
type Request interface {
	SetHTTPRequest(*http.Request)
	GetHTTPRequest() *http.Request
}

// LocaleBinder is implemented by requests that accept the resolved client
// locale.
type LocaleBinder interface {
	SetLocale(language.Tag)
}

// HeaderBinder is implemented by requests that accept individual header
// values bound by name.
type HeaderBinder interface {
	SetHeaderValue(name, value string)
}

// CookieBinder is implemented by requests that accept cookie values bound by
// name.
type CookieBinder interface {
	SetCookieValue(name, value string)
}

// TextBodyBinder is implemented by requests that accept the request body
// converted to a string.
type TextBodyBinder interface {
	SetTextBody(string)
}

// JSONBodyBinder is implemented by requests that accept the request body
// decoded from JSON. JSONBody returns the value to decode into.
type JSONBodyBinder interface {
	JSONBody() any
}

// BaseRequest provides a base implementation for HTTP requests, including
// storage for values bound by request processors.
type BaseRequest struct {
	*http.Request `json:"-"`

	locale  language.Tag
	headers map[string]string
	cookies map[string]string
}

var (
	_ Request      = (*BaseRequest)(nil)
	_ LocaleBinder = (*BaseRequest)(nil)
	_ HeaderBinder = (*BaseRequest)(nil)
	_ CookieBinder = (*BaseRequest)(nil)
)

// GetHTTPRequest returns the underlying HTTP request.
func (r *BaseRequest) GetHTTPRequest() *http.Request {
	return r.Request
}

// SetHTTPRequest sets the underlying HTTP request.
func (r *BaseRequest) SetHTTPRequest(req *http.Request) {
	r.Request = req
}

// Locale returns the resolved client locale, or language.Und if it wasn't
// resolved.
func (r *BaseRequest) Locale() language.Tag {
	return r.locale
}

// SetLocale sets the resolved client locale.
func (r *BaseRequest) SetLocale(tag language.Tag) {
	r.locale = tag
}

// HeaderValue returns the bound value of the header with the given name.
func (r *BaseRequest) HeaderValue(name string) string {
	return r.headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// SetHeaderValue binds a header value.
func (r *BaseRequest) SetHeaderValue(name, value string) {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[textproto.CanonicalMIMEHeaderKey(name)] = value
}

// CookieValue returns the bound value of the cookie with the given name.
func (r *BaseRequest) CookieValue(name string) string {
	return r.cookies[name]
}

// SetCookieValue binds a cookie value.
func (r *BaseRequest) SetCookieValue(name, value string) {
	if r.cookies == nil {
		r.cookies = make(map[string]string)
	}
	r.cookies[name] = value
}

// HeaderMap returns a copy of all request headers. Unlike http.Request.Header
// it includes the Host header, which net/http moves to http.Request.Host.
func (r *BaseRequest) HeaderMap() http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if r.Host != "" {
		h.Set("Host", r.Host)
	}
	return h
}

// TextRequest is a request whose body is bound as a string.
type TextRequest struct {
	BaseRequest `json:"-"`
	Body        string `json:"-"`
}

var _ TextBodyBinder = (*TextRequest)(nil)

// SetTextBody sets the converted request body.
func (r *TextRequest) SetTextBody(body string) {
	r.Body = body
}

// EntityRequest is a request entity: the request line and headers together
// with the body converted to a string.
type EntityRequest struct {
	TextRequest
}

// Headers returns the entity headers, including Host.
func (r *EntityRequest) Headers() http.Header {
	return r.HeaderMap()
}
