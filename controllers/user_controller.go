package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/utils"
)

type UserController struct {
	accounts  *services.AccountService
	referrals *services.ReferralService
	cfg       *config.Config
}

func NewUserController(accounts *services.AccountService, referrals *services.ReferralService, cfg *config.Config) *UserController {
	return &UserController{accounts: accounts, referrals: referrals, cfg: cfg}
}

// Me returns the caller's account with the eligibility numbers the
// front-end needs to render the balance view.
func (uc *UserController) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	user, err := uc.accounts.GetAccount(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	needed := uc.cfg.MinPaidReferrals - user.PaidReferrals
	if needed < 0 {
		needed = 0
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Account retrieved",
		Data: models.BalanceInfo{
			User:            user,
			Eligible:        user.PaidReferrals >= uc.cfg.MinPaidReferrals,
			ReferralsNeeded: needed,
			MinWithdrawal:   uc.cfg.MinWithdrawal,
		},
	})
}

// ReferralLink returns the caller's referral code and invite link.
func (uc *UserController) ReferralLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	user, err := uc.accounts.GetAccount(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral info retrieved",
		Data: models.ReferralInfo{
			ReferralCode: user.ReferralCode,
			InviteLink:   utils.BuildInviteLink(uc.cfg.BotUsername, user.ReferralCode),
			Commission:   uc.cfg.Commission,
		},
	})
}

// ReferralQR serves the invite link as a PNG QR code.
func (uc *UserController) ReferralQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	user, err := uc.accounts.GetAccount(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	link := utils.BuildInviteLink(uc.cfg.BotUsername, user.ReferralCode)
	img, err := utils.InviteQR(link, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to render QR code",
		})
	}

	return c.Blob(http.StatusOK, "image/png", img)
}

// MyReferrals lists the caller's recorded referrals.
func (uc *UserController) MyReferrals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	referrals, err := uc.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referrals retrieved",
		Data:    referrals,
	})
}

// Leaderboard returns the top referrers by paid referrals.
func (uc *UserController) Leaderboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	limit := int64(6)
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	users, err := uc.accounts.TopReferrers(ctx, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	// Strip everything the leaderboard does not display
	type entry struct {
		FirstName     string `json:"firstName"`
		PaidReferrals int64  `json:"paidReferrals"`
	}
	entries := make([]entry, 0, len(users))
	for _, u := range users {
		entries = append(entries, entry{FirstName: u.FirstName, PaidReferrals: u.PaidReferrals})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Leaderboard retrieved",
		Data:    entries,
	})
}
