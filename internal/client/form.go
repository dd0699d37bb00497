package client

import (
	"errors"
	"strings"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"
)

// ErrInvalidForm is returned by Run when the form check fails. No request is sent.
var ErrInvalidForm = errors.New("invalid form")

// Form is the user input of one prediction request.
type Form struct {
	Ticker     string
	StartDate  string
	EndDate    string
	FutureDays int
}

// FormError names the first field that failed the check.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Is(target error) bool { return target == ErrInvalidForm }

// Check runs the client-side validation.
func (f Form) Check() error {
	if strings.TrimSpace(f.Ticker) == "" {
		return &FormError{Field: "ticker", Message: "Please enter a ticker"}
	}
	start, err := util.ParseDate(f.StartDate)
	if err != nil {
		return &FormError{Field: "startDate", Message: "Please select a valid start date"}
	}
	end, err := util.ParseDate(f.EndDate)
	if err != nil {
		return &FormError{Field: "endDate", Message: "Please select a valid end date"}
	}
	if start.After(end) {
		return &FormError{Field: "startDate", Message: "Start date must not be after end date"}
	}
	if f.FutureDays <= 0 {
		return &FormError{Field: "futureDays", Message: "Future days must be greater than 0"}
	}
	return nil
}

func (f Form) request() models.PredictRequest {
	return models.PredictRequest{
		Ticker:     util.NormalizeTicker(f.Ticker),
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
		FutureDays: f.FutureDays,
	}
}
