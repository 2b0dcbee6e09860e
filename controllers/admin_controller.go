package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/utils"
)

// AdminController handles admin login, dashboard stats and account
// moderation. Workflow resolutions live on the payment and withdrawal
// controllers; everything here is still behind the approval gate.
type AdminController struct {
	accounts    *services.AccountService
	admins      repositories.AdminRepository
	payments    repositories.PaymentRepository
	withdrawals repositories.WithdrawalRepository
	gate        *services.Gate
}

func NewAdminController(accounts *services.AccountService, admins repositories.AdminRepository, payments repositories.PaymentRepository, withdrawals repositories.WithdrawalRepository, gate *services.Gate) *AdminController {
	return &AdminController{
		accounts:    accounts,
		admins:      admins,
		payments:    payments,
		withdrawals: withdrawals,
		gate:        gate,
	}
}

// Login checks admin credentials and issues a token carrying the
// admin's actor id.
func (ac *AdminController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.AdminLoginRequest
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

	admin, err := ac.admins.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		return errorResponse(c, err)
	}
	if !utils.CheckPassword(admin.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	token, err := middleware.GenerateJWT(admin.ActorID, "admin")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	admin.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token": token,
			"admin": admin,
		},
	})
}

// RegisterAdmin creates admin credentials for an actor already in the
// privileged set.
func (ac *AdminController) RegisterAdmin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	if !ac.gate.IsAdmin(actorID) {
		return errorResponse(c, models.ErrAccessDenied)
	}

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
		ActorID  int64  `json:"actorId" validate:"required"`
	}
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
	if !ac.gate.IsAdmin(req.ActorID) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Actor id is not in the privileged set",
		})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to hash password",
		})
	}

	admin := &models.Admin{
		Username:  req.Username,
		Password:  hash,
		ActorID:   req.ActorID,
		Role:      "admin",
		CreatedAt: time.Now(),
	}
	if err := ac.admins.Create(ctx, admin); err != nil {
		return errorResponse(c, err)
	}

	admin.Password = ""
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Admin created",
		Data:    admin,
	})
}

// Stats aggregates the dashboard counters.
func (ac *AdminController) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ac.requireAdmin(c); err != nil {
		return err
	}

	stats := models.AdminDashboardStats{}
	var err error
	if stats.TotalUsers, err = ac.accounts.UserCount(ctx); err != nil {
		return errorResponse(c, err)
	}
	if stats.TotalPayments, err = ac.payments.Count(ctx); err != nil {
		return errorResponse(c, err)
	}
	if stats.PendingPayments, err = ac.payments.CountByStatus(ctx, models.StatusPending); err != nil {
		return errorResponse(c, err)
	}
	if stats.TotalWithdrawals, err = ac.withdrawals.Count(ctx); err != nil {
		return errorResponse(c, err)
	}
	if stats.PendingWithdrawals, err = ac.withdrawals.CountByStatus(ctx, models.StatusPending); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Stats retrieved",
		Data:    stats,
	})
}

// BlockUser soft-blocks an account; its records are kept.
func (ac *AdminController) BlockUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ac.requireAdmin(c); err != nil {
		return err
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user id",
		})
	}

	var req models.BlockUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := ac.accounts.SetStatus(ctx, userID, models.UserStatusBlocked, req.Reason); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User blocked",
	})
}

// UnblockUser reactivates a blocked account.
func (ac *AdminController) UnblockUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ac.requireAdmin(c); err != nil {
		return err
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user id",
		})
	}

	if err := ac.accounts.SetStatus(ctx, userID, models.UserStatusActive, ""); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User unblocked",
	})
}

func (ac *AdminController) requireAdmin(c echo.Context) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	if !ac.gate.IsAdmin(actorID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	return nil
}
