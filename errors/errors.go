package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors used across the application
var (
	// Configuration errors
	ErrNilConfig     = errors.New("config cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrEmptyStage    = errors.New("stage cannot be empty")
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrUnknownMode   = errors.New("unknown invocation mode")

	// Store errors
	ErrEmptySQL     = errors.New("sql query cannot be empty")
	ErrStoreClosed  = errors.New("record store is closed")
	ErrNilResponse  = errors.New("received nil response from store")
	ErrNoInvoker    = errors.New("no invoker configured for mode")
	ErrEmptyTarget  = errors.New("invocation target cannot be empty")
	ErrEmptyPayload = errors.New("payload cannot be empty")

	// Data processing errors
	ErrMarshalFailed   = errors.New("failed to marshal data")
	ErrUnmarshalFailed = errors.New("failed to unmarshal data")
)

// ErrorType classifies a failure and decides the response status code.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeUpstream   ErrorType = "upstream"
)

// ApplicationError represents a structured error with type and context
type ApplicationError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *ApplicationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ApplicationError) Unwrap() error {
	return e.Cause
}

// NewApplicationError creates a new ApplicationError
func NewApplicationError(errType ErrorType, message string, cause error) *ApplicationError {
	return &ApplicationError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

func Validation(message string) *ApplicationError {
	return NewApplicationError(ErrorTypeValidation, message, nil)
}

func NotFound(message string) *ApplicationError {
	return NewApplicationError(ErrorTypeNotFound, message, nil)
}

func Upstream(message string, cause error) *ApplicationError {
	return NewApplicationError(ErrorTypeUpstream, message, cause)
}

// WithContext adds context to the error
func (e *ApplicationError) WithContext(key string, value interface{}) *ApplicationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// StatusCode maps the error type to an HTTP status.
func (e *ApplicationError) StatusCode() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the raw message of the underlying cause, empty when there is none.
func (e *ApplicationError) Detail() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

// GetErrorType extracts error type from any error
func GetErrorType(err error) ErrorType {
	var app *ApplicationError
	if errors.As(err, &app) {
		return app.Type
	}
	return "unknown"
}

// AsApplicationError returns err as an ApplicationError, classifying
// unknown errors as upstream failures.
func AsApplicationError(err error, message string) *ApplicationError {
	var app *ApplicationError
	if errors.As(err, &app) {
		return app
	}
	return Upstream(message, err)
}

// FromPanic converts a recovered value into an upstream error.
func FromPanic(recovered interface{}) *ApplicationError {
	if err, ok := recovered.(error); ok {
		return Upstream("unexpected failure", err)
	}
	return Upstream("unexpected failure", fmt.Errorf("%v", recovered))
}
