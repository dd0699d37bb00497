package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the transport layer can pick a status.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindDegenerateScale Kind = "degenerate_scale"
	KindForecast        Kind = "forecast"
	KindUpstreamTimeout Kind = "upstream_timeout"
	KindUpstream        Kind = "upstream"
	KindUnexpected      Kind = "unexpected"
)

// Error is a typed pipeline error.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoData) works
// regardless of op or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNoData          = &Error{Kind: KindNotFound}
	ErrDegenerateScale = &Error{Kind: KindDegenerateScale}
	ErrForecast        = &Error{Kind: KindForecast}
	ErrUpstreamTimeout = &Error{Kind: KindUpstreamTimeout}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

// Validation creates a user-correctable request error.
func Validation(op, field, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Message: message}
}

// EmptyInput is the validation error raised on a zero-length series.
func EmptyInput(op string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: "empty input series"}
}

// NoData reports an empty upstream series for the requested range.
func NoData(op, ticker string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("no data found for %s in the given date range", ticker)}
}

// DegenerateScale reports min == max scaling parameters.
func DegenerateScale(op string, value float64) *Error {
	return &Error{Kind: KindDegenerateScale, Op: op, Message: fmt.Sprintf("all closes equal %.4f", value)}
}

// Forecast wraps a model failure.
func Forecast(op string, err error) *Error {
	return &Error{Kind: KindForecast, Op: op, Message: "forecast failed", Err: err}
}

// Upstream wraps a series source failure, mapping deadline hits to
// KindUpstreamTimeout.
func Upstream(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstreamTimeout, Op: op, Message: "series source timed out", Err: err}
	}
	return &Error{Kind: KindUpstream, Op: op, Message: "series source unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindUnexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
