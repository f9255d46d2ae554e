package browser

import (
	"errors"
	"fmt"
)

// Common browser errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrNotInitialized  = errors.New("browser session not initialized")
	ErrNotFound        = errors.New("element not found")
	ErrNoWindow        = errors.New("no such window")
	ErrTimeout         = errors.New("browser operation timed out")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeLaunch     ErrorCode = "LAUNCH"
	ErrCodeNavigation ErrorCode = "NAVIGATION"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeTimeout    ErrorCode = "TIMEOUT"
	ErrCodeWindow     ErrorCode = "WINDOW"
	ErrCodeScript     ErrorCode = "SCRIPT"
)

// Error wraps a driver failure with a code and the URL or selector involved.
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by code, otherwise defers to the underlying error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewError creates a new Error
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}
