package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrConfig       = errors.New("configuration invalid")
	ErrRemote       = errors.New("remote call failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

// NewConfig marks a setup problem that should stop the run instead of being
// retried (missing base URL, unusable credentials shape).
func NewConfig(details string) *AppError {
	return NewAppError(ErrConfig, "Invalid configuration", details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal error occurred", details, err)
}

func NewUnauthorized(details string) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, nil)
}

// RemoteError carries the HTTP status and response body of a failed remote
// call so an operator can diagnose it from the logs alone.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s returned status %d: %s", ErrRemote.Error(), e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %s: %v", ErrRemote.Error(), e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

func NewRemote(op string, statusCode int, body string) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Body: body}
}

func NewRemoteErr(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// IsRemoteStatus reports whether err is a remote failure with the given
// HTTP status code.
func IsRemoteStatus(err error, statusCode int) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == statusCode
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConfig) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRemote) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() gin.H {
	return gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
}
