package http

import (
	"errors"
	"fmt"
	"net/http"

	"StockCast/internal/domain/errs"
)

const (
	CodeBadRequest      = "ERR_BAD_REQUEST"
	CodeNotFound        = "ERR_NOT_FOUND"
	CodeUpstreamTimeout = "ERR_UPSTREAM_TIMEOUT"
	CodeUpstream        = "ERR_UPSTREAM"
	CodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
	CodeInternal        = "ERR_INTERNAL"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, "", message, http.StatusNotFound)
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, "", message, http.StatusBadRequest)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}

// TooManyRequestsError creates a 429 error.
func TooManyRequestsError() *AppError {
	return NewAppError(CodeTooManyRequests, "", "Too many requests", http.StatusTooManyRequests)
}

// FromDomain maps a pipeline error to its transport error. Only validation
// errors expose their message; everything else uses a fixed public text.
func FromDomain(err error) *AppError {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		app := BadRequestError(err.Error())
		var e *errs.Error
		if errors.As(err, &e) {
			app.Message = e.Message
			app.Field = e.Field
		}
		return app.WithError(err)
	case errs.KindNotFound:
		return NotFoundError("No data found for the given ticker and date range").WithError(err)
	case errs.KindUpstreamTimeout:
		return NewAppError(CodeUpstreamTimeout, "", "Data source timed out", http.StatusGatewayTimeout).WithError(err)
	case errs.KindUpstream:
		return NewAppError(CodeUpstream, "", "Data source unavailable", http.StatusBadGateway).WithError(err)
	default:
		return InternalError("Failed to process prediction").WithError(err)
	}
}
