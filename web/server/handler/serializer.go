package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"go.hackfix.me/reqbind/web/server/types"
)

// Serializer is the interface for deserializing the raw request body data into
// the typed request value, and for serializing the typed response value into
// the raw response data.
type Serializer interface {
	Deserialize(ctx context.Context, req types.Request) (context.Context, error)
	Serialize(ctx context.Context, resp types.Response) (context.Context, error)
}

// JSONSerializer implements JSON request and response serialization.
type JSONSerializer struct{}

var _ Serializer = (*JSONSerializer)(nil)

// JSON returns a new JSON serializer.
func JSON() JSONSerializer {
	return JSONSerializer{}
}

// Deserialize decodes JSON from the request body into the value returned by
// the request's JSONBody method. Requests that don't implement
// types.JSONBodyBinder, and empty bodies, are left untouched.
func (JSONSerializer) Deserialize(ctx context.Context, req types.Request) (context.Context, error) {
	binder, ok := req.(types.JSONBodyBinder)
	if !ok {
		return ctx, nil
	}

	httpReq := req.GetHTTPRequest()
	if httpReq.Body == nil {
		return ctx, nil
	}

	decoder := json.NewDecoder(httpReq.Body)
	if err := decoder.Decode(binder.JSONBody()); err != nil {
		if errors.Is(err, io.EOF) {
			return ctx, nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ctx, err
		}
		return ctx, types.Errorf(http.StatusBadRequest, "failed decoding request body as JSON: %s", err)
	}

	return ctx, nil
}

// jsonError is the document written in place of a failed response.
type jsonError struct {
	Error error `json:"error"`
}

// Serialize encodes the response as JSON and stores it in the context for writing.
// It sets the appropriate Content-Type header. If the response has an error,
// only the error is encoded.
func (JSONSerializer) Serialize(ctx context.Context, resp types.Response) (context.Context, error) {
	var v any = resp
	if rerr := resp.GetError(); rerr != nil {
		v = jsonError{Error: rerr}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ctx, fmt.Errorf("failed marshalling response into JSON: %w", err)
	}

	ctx = setResponseData(ctx, data)

	resp.GetHeader().Set("Content-Type", "application/json")

	return ctx, nil
}

// TextSerializer converts the request body into a string using the charset
// declared in the request Content-Type, and writes string responses as UTF-8
// plain text.
type TextSerializer struct {
	bodyRequired bool
}

var _ Serializer = (*TextSerializer)(nil)

// TextOption configures a TextSerializer.
type TextOption func(*TextSerializer)

// BodyRequired makes the serializer reject requests with an empty body.
func BodyRequired() TextOption {
	return func(s *TextSerializer) {
		s.bodyRequired = true
	}
}

// Text returns a new text serializer.
func Text(opts ...TextOption) TextSerializer {
	s := TextSerializer{}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Deserialize reads the request body as text and binds it to the request.
// Requests that don't implement types.TextBodyBinder are left untouched, and
// their body isn't read.
func (s TextSerializer) Deserialize(ctx context.Context, req types.Request) (context.Context, error) {
	binder, ok := req.(types.TextBodyBinder)
	if !ok {
		return ctx, nil
	}

	body, err := ReadText(req.GetHTTPRequest())
	if err != nil {
		return ctx, err
	}

	if body == "" && s.bodyRequired {
		return ctx, types.NewError(http.StatusBadRequest, "required request body is missing")
	}

	binder.SetTextBody(body)

	return ctx, nil
}

// Serialize stores the response text body in the context for writing. The
// response must implement types.TextBodyProvider.
func (TextSerializer) Serialize(ctx context.Context, resp types.Response) (context.Context, error) {
	provider, ok := resp.(types.TextBodyProvider)
	if !ok {
		return ctx, fmt.Errorf("response type %T doesn't provide a text body", resp)
	}

	ctx = setResponseData(ctx, []byte(provider.GetTextBody()))

	resp.GetHeader().Set("Content-Type", "text/plain; charset=utf-8")

	return ctx, nil
}

// ReadText reads the whole request body and decodes it into a UTF-8 string
// using the charset parameter of the Content-Type header. Without a charset
// the body is assumed to be UTF-8, and is returned as is.
func ReadText(r *http.Request) (string, error) {
	enc, err := requestEncoding(r.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	if r.Body == nil {
		return "", nil
	}

	var body io.Reader = r.Body
	if enc != nil {
		body = transform.NewReader(body, enc.NewDecoder())
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed reading request body: %w", err)
	}

	return string(data), nil
}

// ReadUTF8 reads the whole request body as UTF-8, regardless of the declared
// Content-Type.
func ReadUTF8(body io.Reader) (string, error) {
	if body == nil {
		return "", nil
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, body); err != nil {
		return "", fmt.Errorf("failed reading request body: %w", err)
	}
	return sb.String(), nil
}

// requestEncoding returns the encoding declared in the contentType charset
// parameter. It returns nil for UTF-8 or if no charset is declared.
//
//nolint:ireturn // encoding.Encoding is the natural return type here.
func requestEncoding(contentType string) (encoding.Encoding, error) {
	if contentType == "" {
		return nil, nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, types.Errorf(http.StatusUnsupportedMediaType,
			"invalid Content-Type '%s'", contentType)
	}

	charset := params["charset"]
	if charset == "" {
		return nil, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, types.Errorf(http.StatusUnsupportedMediaType,
			"unsupported charset '%s'", charset)
	}

	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}

	return enc, nil
}
