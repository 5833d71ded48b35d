package types

import "net/http"

// HeadersInfoResponse is the JSON summary of the values bound from a request's
// headers.
type HeadersInfoResponse struct {
	BaseResponse
	Method  string      `json:"method"`
	Locale  string      `json:"locale"`
	Host    string      `json:"host"`
	Cookie  string      `json:"cookie"`
	Headers http.Header `json:"headers"`
}
