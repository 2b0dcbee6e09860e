package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/utils"
)

type AuthController struct {
	accounts  *services.AccountService
	referrals *services.ReferralService
}

func NewAuthController(accounts *services.AccountService, referrals *services.ReferralService) *AuthController {
	return &AuthController{accounts: accounts, referrals: referrals}
}

// Register creates an account on first contact and, when the request
// carries a referral code, attributes the registration to the code's
// owner. An unknown code does not fail the registration.
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RegisterRequest
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

	firstName := utils.SanitizeInput(req.FirstName)
	lastName := utils.SanitizeInput(req.LastName)
	username := utils.SanitizeInput(req.Username)

	user, err := ac.accounts.CreateAccount(ctx, req.TelegramID, firstName, lastName, username)
	if err != nil {
		return errorResponse(c, err)
	}

	if req.ReferralCode != "" {
		if err := ac.referrals.RecordReferral(ctx, req.ReferralCode, user.TelegramID); err != nil {
			if !errors.Is(err, models.ErrInvalidReferral) {
				return errorResponse(c, err)
			}
			// Self-referral: the account exists, the attribution is
			// simply refused.
		}
	}

	token, err := middleware.GenerateJWT(user.TelegramID, "user")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created",
		Data:    models.LoginResponse{Token: token, User: user},
	})
}

// Login issues a token for an existing account.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
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
		})
	}

	user, err := ac.accounts.GetAccount(ctx, req.TelegramID)
	if err != nil {
		return errorResponse(c, err)
	}
	if user.IsBlocked() {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is blocked",
		})
	}

	token, err := middleware.GenerateJWT(user.TelegramID, "user")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    models.LoginResponse{Token: token, User: user},
	})
}
