package http

import (
	"errors"
	"net/http"
	"strings"

	"lendora-core/internal/creditgate"
	"lendora-core/internal/domain/collateral"
	"lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/params"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain errors to HTTP codes. Anything unmapped is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, collateral.ErrNotFound),
		errors.Is(err, params.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrInvalidInput),
		errors.Is(err, collateral.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, loan.ErrLoanNotActive),
		errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, loan.ErrOverRepayment),
		errors.Is(err, loan.ErrNotMatured),
		errors.Is(err, loan.ErrConcurrencyConflict),
		errors.Is(err, collateral.ErrInsufficientCollateral),
		errors.Is(err, collateral.ErrBelowMinimumRatio),
		errors.Is(err, params.ErrOutOfBounds):
		return http.StatusConflict
	case errors.Is(err, collateral.ErrStalePrice),
		errors.Is(err, creditgate.ErrVerificationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

// ---- helpers ----

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
