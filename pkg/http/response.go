package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// JSONResponse writes data with status as-is, without an envelope.
func JSONResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, data)
}

// SuccessResponse writes a 200 response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes the first validation failure as a 400.
func BadRequestResponse(c echo.Context, verrs []ValidationError) error {
	body := ErrorBody{Error: "Missing required parameters", Code: CodeBadRequest}
	if len(verrs) > 0 {
		body.Error = verrs[0].Message
		body.Field = verrs[0].Field
	}
	return JSONResponse(c, http.StatusBadRequest, body)
}

// InternalServerErrorResponse writes a 500 with no detail.
func InternalServerErrorResponse(c echo.Context) error {
	return JSONResponse(c, http.StatusInternalServerError, ErrorBody{Error: "Failed to process prediction", Code: CodeInternal})
}

// AppErrorResponse writes err as {error, code}. Non-AppErrors become a 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return JSONResponse(c, appErr.Status, ErrorBody{Error: appErr.Message, Code: appErr.Code, Field: appErr.Field})
	}
	return InternalServerErrorResponse(c)
}
