// services/payment_service.go
package services

import (
	"context"
	"time"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
)

// PaymentService runs the payment state machine:
// pending -> approved | rejected, terminal either way. Approving a
// payment settles the payer's pending referral, which credits the
// commission to the actual referrer.
type PaymentService struct {
	accounts  *AccountService
	referrals *ReferralService
	payments  repositories.PaymentRepository
	gate      *Gate
	cfg       *config.Config
}

func NewPaymentService(accounts *AccountService, referrals *ReferralService, payments repositories.PaymentRepository, gate *Gate, cfg *config.Config) *PaymentService {
	return &PaymentService{
		accounts:  accounts,
		referrals: referrals,
		payments:  payments,
		gate:      gate,
		cfg:       cfg,
	}
}

// Submit creates a pending payment for a known, non-blocked user. A
// non-positive amount falls back to the configured default.
func (s *PaymentService) Submit(ctx context.Context, userID int64, proofRef string, amount int64) (*models.Payment, error) {
	user, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked() {
		return nil, models.ErrAccessDenied
	}

	if amount <= 0 {
		amount = s.cfg.PaymentAmount
	}

	now := time.Now()
	payment := &models.Payment{
		ID:          models.NewPaymentID(userID, now),
		UserID:      userID,
		Amount:      amount,
		ProofRef:    proofRef,
		Status:      models.StatusPending,
		SubmittedAt: now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Approve resolves a pending payment. The status flip is the idempotency
// barrier: of two racing approvals only one wins it, so the referral
// settlement behind it runs at most once per payment.
func (s *PaymentService) Approve(ctx context.Context, paymentID string, actorID int64) (*models.Payment, error) {
	if !s.gate.IsAdmin(actorID) {
		return nil, models.ErrAccessDenied
	}

	payment, err := s.payments.Resolve(ctx, paymentID, models.StatusApproved, actorID, "")
	if err != nil {
		return nil, err
	}

	if err := s.referrals.MarkPaid(ctx, payment.UserID); err != nil {
		return nil, err
	}
	return payment, nil
}

// Reject resolves a pending payment without any ledger effect.
func (s *PaymentService) Reject(ctx context.Context, paymentID string, reason string, actorID int64) (*models.Payment, error) {
	if !s.gate.IsAdmin(actorID) {
		return nil, models.ErrAccessDenied
	}
	return s.payments.Resolve(ctx, paymentID, models.StatusRejected, actorID, reason)
}

// ListPending returns pending payments in submission order.
func (s *PaymentService) ListPending(ctx context.Context) ([]models.Payment, error) {
	return s.payments.ListPending(ctx)
}

// Get returns a payment by id.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.payments.Get(ctx, id)
}
