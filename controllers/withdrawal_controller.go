package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/utils"
	"github.com/dagimsenay/refpay_backend/websocket"
)

type WithdrawalController struct {
	withdrawals *services.WithdrawalService
	hub         *websocket.Hub
}

func NewWithdrawalController(withdrawals *services.WithdrawalService, hub *websocket.Hub) *WithdrawalController {
	return &WithdrawalController{withdrawals: withdrawals, hub: hub}
}

// Request creates a withdrawal for the caller and notifies connected
// admins. Eligibility failures come back with the concrete numbers.
func (wc *WithdrawalController) Request(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var req models.WithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing required fields",
			Data:    err.Error(),
		})
	}

	method := utils.SanitizeInput(req.PaymentMethod)
	account := utils.SanitizeAccountNumber(req.AccountNumber)

	withdrawal, err := wc.withdrawals.Request(ctx, userID, req.Amount, method, account)
	if err != nil {
		return errorResponse(c, err)
	}

	wc.hub.NotifyWithdrawalRequested(withdrawal)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal request submitted",
		Data:    withdrawal,
	})
}

// ListPending returns pending withdrawals in request order.
func (wc *WithdrawalController) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	withdrawals, err := wc.withdrawals.ListPending(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending withdrawals retrieved",
		Data:    withdrawals,
	})
}

// Approve resolves a pending withdrawal and debits the balance.
func (wc *WithdrawalController) Approve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	withdrawal, err := wc.withdrawals.Approve(ctx, c.Param("id"), actorID)
	if err != nil {
		return errorResponse(c, err)
	}

	wc.hub.NotifyWithdrawalResolved(withdrawal.UserID, withdrawal)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal approved",
		Data:    withdrawal,
	})
}

// Reject resolves a pending withdrawal with a reason.
func (wc *WithdrawalController) Reject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var req models.ResolveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	withdrawal, err := wc.withdrawals.Reject(ctx, c.Param("id"), utils.SanitizeInput(req.Reason), actorID)
	if err != nil {
		return errorResponse(c, err)
	}

	wc.hub.NotifyWithdrawalResolved(withdrawal.UserID, withdrawal)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal rejected",
		Data:    withdrawal,
	})
}
