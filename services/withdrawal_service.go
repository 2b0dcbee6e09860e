// services/withdrawal_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
)

// WithdrawalService runs the withdrawal state machine. Eligibility is
// checked at request time against the account as read then; the balance
// is re-validated at approval, because it may have changed in between.
type WithdrawalService struct {
	accounts    *AccountService
	withdrawals repositories.WithdrawalRepository
	gate        *Gate
	cfg         *config.Config
}

func NewWithdrawalService(accounts *AccountService, withdrawals repositories.WithdrawalRepository, gate *Gate, cfg *config.Config) *WithdrawalService {
	return &WithdrawalService{
		accounts:    accounts,
		withdrawals: withdrawals,
		gate:        gate,
		cfg:         cfg,
	}
}

// Request creates a pending withdrawal after the three eligibility
// checks. The failures carry the numbers the front-end needs to render
// an actionable message.
func (s *WithdrawalService) Request(ctx context.Context, userID, amount int64, method, accountNumber string) (*models.Withdrawal, error) {
	user, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked() {
		return nil, models.ErrAccessDenied
	}

	if user.PaidReferrals < s.cfg.MinPaidReferrals {
		return nil, &models.EligibilityError{
			Required: s.cfg.MinPaidReferrals,
			Have:     user.PaidReferrals,
		}
	}
	if amount < s.cfg.MinWithdrawal {
		return nil, &models.AmountError{
			Minimum: s.cfg.MinWithdrawal,
			Amount:  amount,
		}
	}
	if amount > user.Balance {
		return nil, &models.BalanceError{
			Balance:   user.Balance,
			Requested: amount,
		}
	}

	now := time.Now()
	withdrawal := &models.Withdrawal{
		ID:            models.NewWithdrawalID(userID, now),
		UserID:        userID,
		Amount:        amount,
		PaymentMethod: method,
		AccountNumber: accountNumber,
		Status:        models.StatusPending,
		RequestedAt:   now,
	}
	if err := s.withdrawals.Create(ctx, withdrawal); err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// Approve resolves a pending withdrawal and debits the balance. The
// status flip comes first so a duplicate approval cannot debit twice;
// the debit itself is balance-guarded, and if the guard fails the
// withdrawal is reopened and the caller told the balance no longer
// covers the amount.
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID string, actorID int64) (*models.Withdrawal, error) {
	if !s.gate.IsAdmin(actorID) {
		return nil, models.ErrAccessDenied
	}

	withdrawal, err := s.withdrawals.Resolve(ctx, withdrawalID, models.StatusApproved, actorID, "")
	if err != nil {
		return nil, err
	}

	_, err = s.accounts.ApplyLedgerDelta(ctx, withdrawal.UserID, models.LedgerDelta{
		Balance:        -withdrawal.Amount,
		TotalWithdrawn: withdrawal.Amount,
	})
	if err != nil {
		if reopenErr := s.withdrawals.Reopen(ctx, withdrawalID); reopenErr != nil {
			log.Printf("failed to reopen withdrawal %s after debit failure: %v", withdrawalID, reopenErr)
		}
		if errors.Is(err, models.ErrInvariantViolation) {
			balance := int64(0)
			if user, getErr := s.accounts.GetAccount(ctx, withdrawal.UserID); getErr == nil {
				balance = user.Balance
			}
			return nil, &models.BalanceError{
				Balance:   balance,
				Requested: withdrawal.Amount,
			}
		}
		return nil, err
	}
	return withdrawal, nil
}

// Reject resolves a pending withdrawal. The funds were never debited,
// so there is nothing to restore.
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID string, reason string, actorID int64) (*models.Withdrawal, error) {
	if !s.gate.IsAdmin(actorID) {
		return nil, models.ErrAccessDenied
	}
	return s.withdrawals.Resolve(ctx, withdrawalID, models.StatusRejected, actorID, reason)
}

// ListPending returns pending withdrawals in request order.
func (s *WithdrawalService) ListPending(ctx context.Context) ([]models.Withdrawal, error) {
	return s.withdrawals.ListPending(ctx)
}

// Get returns a withdrawal by id.
func (s *WithdrawalService) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	return s.withdrawals.Get(ctx, id)
}
