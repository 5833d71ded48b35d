package types

import "fmt"

// Error represents an HTTP error with status code and message.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

// Error returns the error message string.
func (e Error) Error() string {
	return e.Message
}

// NewError creates a new Error with the specified status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}

// Errorf creates a new Error with the specified status code and a formatted
// message.
func Errorf(statusCode int, format string, args ...any) *Error {
	return NewError(statusCode, fmt.Sprintf(format, args...))
}

// ErrorLevel is the detail level of error messages returned to clients.
// It never affects response status codes.
type ErrorLevel string

const (
	// ErrorLevelNone replaces every error message with the status text.
	ErrorLevelNone ErrorLevel = "none"
	// ErrorLevelMinimal keeps client error (4xx) messages, and replaces server
	// error (5xx) messages with the status text.
	ErrorLevelMinimal ErrorLevel = "minimal"
	// ErrorLevelFull keeps all error messages intact.
	ErrorLevelFull ErrorLevel = "full"
)
