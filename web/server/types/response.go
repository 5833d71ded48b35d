package types

import (
	"errors"
	"net/http"
)

// Response defines the interface for HTTP response wrappers.
type Response interface {
	GetStatusCode() int
	SetStatusCode(int)
	GetHeader() http.Header
	SetHeader(http.Header)
	GetError() error
	SetError(error)
}

// TextBodyProvider is implemented by responses that have a string body.
type TextBodyProvider interface {
	GetTextBody() string
}

// BaseResponse provides a base implementation for HTTP responses.
type BaseResponse struct {
	StatusCode int    `json:"-"`
	Error      *Error `json:"error,omitempty"`
	header     http.Header
}

var _ Response = (*BaseResponse)(nil)

// NewBaseResponse returns a new response with the specified status code and
// optional error.
func NewBaseResponse(statusCode int, err error) BaseResponse {
	resp := BaseResponse{StatusCode: statusCode}
	if err != nil {
		resp.SetError(err)
	}
	return resp
}

// GetStatusCode returns the HTTP status code for the response.
func (r *BaseResponse) GetStatusCode() int {
	return r.StatusCode
}

// SetStatusCode sets the HTTP status code for the response.
func (r *BaseResponse) SetStatusCode(code int) {
	r.StatusCode = code
}

// GetHeader returns the response headers.
func (r *BaseResponse) GetHeader() http.Header {
	if r.header == nil {
		r.header = http.Header{}
	}
	return r.header
}

// SetHeader makes h the response header map. Headers already set on the
// response are copied into h first.
func (r *BaseResponse) SetHeader(h http.Header) {
	for k, v := range r.header {
		h[k] = v
	}
	r.header = h
}

// GetError returns the response error, if any.
func (r *BaseResponse) GetError() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// SetError sets the response error. Errors that aren't an *Error are
// converted to one with status 500.
func (r *BaseResponse) SetError(err error) {
	if err == nil {
		r.Error = nil
		return
	}
	var terr *Error
	if !errors.As(err, &terr) {
		terr = NewError(http.StatusInternalServerError, err.Error())
	}
	r.Error = terr
}

// TextResponse is a response with a string body.
type TextResponse struct {
	BaseResponse
	Body string
}

var _ TextBodyProvider = (*TextResponse)(nil)

// NewTextResponse creates a new TextResponse.
func NewTextResponse(statusCode int, body string) *TextResponse {
	return &TextResponse{
		BaseResponse: NewBaseResponse(statusCode, nil),
		Body:         body,
	}
}

// GetTextBody returns the response body.
func (r *TextResponse) GetTextBody() string {
	return r.Body
}
