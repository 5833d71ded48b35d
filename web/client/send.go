package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	aerrors "go.hackfix.me/reqbind/app/errors"
)

// SendRequest describes a request to send to the server.
type SendRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Cookies map[string]string
	Body    string
}

// SendResponse is the server response to a SendRequest.
type SendResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       string
}

// Send sends req to the server and returns its response. Responses with a
// status code of 400 or above are returned along with an error, so that the
// caller can still inspect the body.
func (c *Client) Send(ctx context.Context, req SendRequest) (resp *SendResponse, rerr error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.JoinPath(c.baseURL, req.Path)
	if err != nil {
		return nil, aerrors.NewWithCause("failed building request URL", err,
			"base_url", c.baseURL, "path", req.Path)
	}

	errFields := []any{"url", u, "method", method}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, aerrors.NewWithCause("failed creating request", err, errFields...)
	}

	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	for name, val := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: val})
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}

	c.logger.Debug("sending request", errFields...)

	httpResp, err := c.Do(httpReq)
	if err != nil {
		return nil, aerrors.NewWithCause("failed sending request", err, errFields...)
	}
	defer func() {
		if err = httpResp.Body.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing response body: %w", err)
		}
	}()

	errFields = append(errFields, "status_code", httpResp.StatusCode)

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, aerrors.NewWithCause("failed reading response body", err, errFields...)
	}

	resp = &SendResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       string(respBody),
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return resp, aerrors.NewWith("request failed", errFields...)
	}

	return resp, nil
}
