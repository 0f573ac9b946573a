package apierror

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError is the failure shape everything above the repositories speaks.
// StatusCode drives the HTTP mapping, Errors carries field-level violations
// for validation failures.
type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if len(e.Errors) > 0 {
		return fmt.Sprintf("%d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Errors, "; "))
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func New(status int, message string, violations ...string) *APIError {
	return &APIError{StatusCode: status, Message: message, Errors: violations}
}

func Validation(message string, violations ...string) *APIError {
	return New(http.StatusBadRequest, message, violations...)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, message)
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, message)
}

func UploadFailed(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, message)
}
