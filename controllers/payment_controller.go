package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/utils"
	"github.com/dagimsenay/refpay_backend/websocket"
)

type PaymentController struct {
	payments *services.PaymentService
	hub      *websocket.Hub
}

func NewPaymentController(payments *services.PaymentService, hub *websocket.Hub) *PaymentController {
	return &PaymentController{payments: payments, hub: hub}
}

// Submit records a payment proof for the caller and notifies connected
// admins.
func (pc *PaymentController) Submit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var req models.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	req.ProofRef = utils.SanitizeInput(req.ProofRef)
	if req.ProofRef == "" {
		// The proof is an opaque handle; issue one when the client
		// uploads through a channel that did not assign an id.
		req.ProofRef = uuid.NewString()
	}

	payment, err := pc.payments.Submit(ctx, userID, req.ProofRef, req.Amount)
	if err != nil {
		return errorResponse(c, err)
	}

	pc.hub.NotifyPaymentSubmitted(payment)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payment proof submitted",
		Data:    payment,
	})
}

// ListPending returns pending payments in submission order.
func (pc *PaymentController) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payments, err := pc.payments.ListPending(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending payments retrieved",
		Data:    payments,
	})
}

// Approve resolves a pending payment and credits the payer's referrer.
func (pc *PaymentController) Approve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	payment, err := pc.payments.Approve(ctx, c.Param("id"), actorID)
	if err != nil {
		return errorResponse(c, err)
	}

	pc.hub.NotifyPaymentResolved(payment.UserID, payment)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment approved",
		Data:    payment,
	})
}

// Reject resolves a pending payment with a reason.
func (pc *PaymentController) Reject(c echo.Context) error {
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

	payment, err := pc.payments.Reject(ctx, c.Param("id"), utils.SanitizeInput(req.Reason), actorID)
	if err != nil {
		return errorResponse(c, err)
	}

	pc.hub.NotifyPaymentResolved(payment.UserID, payment)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment rejected",
		Data:    payment,
	})
}
