package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/models"
)

// errorResponse translates the service error taxonomy into HTTP
// responses. Eligibility and balance failures attach their structured
// numbers so the front-end can render an actionable message without
// re-deriving them.
func errorResponse(c echo.Context, err error) error {
	var (
		eligErr    *models.EligibilityError
		amountErr  *models.AmountError
		balanceErr *models.BalanceError
	)

	switch {
	case errors.As(err, &eligErr):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: eligErr.Error(),
			Data:    eligErr,
		})
	case errors.As(err, &amountErr):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: amountErr.Error(),
			Data:    amountErr,
		})
	case errors.As(err, &balanceErr):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: balanceErr.Error(),
			Data:    balanceErr,
		})
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Not found",
		})
	case errors.Is(err, models.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Already exists",
		})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Already resolved",
		})
	case errors.Is(err, models.ErrInvariantViolation):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Operation would break account invariants",
		})
	case errors.Is(err, models.ErrNotEligible):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Not eligible for withdrawal",
		})
	case errors.Is(err, models.ErrBelowMinimum):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Amount below minimum",
		})
	case errors.Is(err, models.ErrInsufficientBalance):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Insufficient balance",
		})
	case errors.Is(err, models.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Access denied",
		})
	case errors.Is(err, models.ErrInvalidReferral):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid referral code",
		})
	case errors.Is(err, models.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Service temporarily unavailable, please retry",
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}
