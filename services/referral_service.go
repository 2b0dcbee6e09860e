// services/referral_service.go
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

// ReferralService tracks referrer->referred relationships and converts
// approved payments into referrer commissions.
type ReferralService struct {
	accounts  *AccountService
	referrals repositories.ReferralRepository
	cfg       *config.Config
}

func NewReferralService(accounts *AccountService, referrals repositories.ReferralRepository, cfg *config.Config) *ReferralService {
	return &ReferralService{accounts: accounts, referrals: referrals, cfg: cfg}
}

// RecordReferral attributes a new registration to the owner of the given
// referral code. An unknown code or a blocked referrer is a silent no-op
// so registration itself never fails on a bad invite link; a user
// presenting their own code gets ErrInvalidReferral. On success the
// referrer's unpaid and total counters are incremented atomically.
func (s *ReferralService) RecordReferral(ctx context.Context, code string, referredID int64) error {
	if code == "" {
		return nil
	}

	referrer, err := s.accounts.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Printf("referral code %q does not resolve, ignoring", code)
			return nil
		}
		return err
	}
	if referrer.IsBlocked() {
		log.Printf("referrer %d is blocked, ignoring referral for %d", referrer.TelegramID, referredID)
		return nil
	}
	if referrer.TelegramID == referredID {
		return models.ErrInvalidReferral
	}

	referral := &models.Referral{
		ReferrerID: referrer.TelegramID,
		ReferredID: referredID,
		Status:     models.ReferralStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := s.referrals.Create(ctx, referral); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			// The pair was recorded before; counters were bumped then.
			return nil
		}
		return err
	}

	_, err = s.accounts.ApplyLedgerDelta(ctx, referrer.TelegramID, models.LedgerDelta{
		UnpaidReferrals: 1,
		TotalReferrals:  1,
	})
	if err != nil {
		// Remove the record so a retried registration can attribute the
		// pair again; otherwise the duplicate-pair branch would swallow
		// the retry and the counters would stay behind forever.
		if delErr := s.referrals.Delete(ctx, referrer.TelegramID, referredID); delErr != nil {
			log.Printf("failed to remove referral %d->%d after counter failure: %v",
				referrer.TelegramID, referredID, delErr)
		}
		return err
	}
	return nil
}

// MarkPaid settles the pending referral of the given referred user: the
// referral is resolved by referredId (the payer), its referrer looked up
// from the record, and the commission credited to that referrer. If no
// pending referral exists (already paid, or the payer was never
// referred) this is a no-op.
func (s *ReferralService) MarkPaid(ctx context.Context, referredID int64) error {
	referral, err := s.referrals.MarkPaid(ctx, referredID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}

	_, err = s.accounts.ApplyLedgerDelta(ctx, referral.ReferrerID, models.LedgerDelta{
		Balance:         s.cfg.Commission,
		TotalEarned:     s.cfg.Commission,
		PaidReferrals:   1,
		UnpaidReferrals: -1,
	})
	if err != nil {
		// Put the referral back so the commission is not stranded: the
		// paid flip already consumed it, and with the payment approved
		// no retried approval would reach this path again.
		if reopenErr := s.referrals.Reopen(ctx, referredID); reopenErr != nil {
			log.Printf("failed to reopen referral for %d after credit failure: %v",
				referredID, reopenErr)
		}
		log.Printf("commission credit for referrer %d (referred %d) failed: %v",
			referral.ReferrerID, referredID, err)
		return err
	}
	return nil
}

// ListByReferrer returns all referrals recorded for an account.
func (s *ReferralService) ListByReferrer(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	return s.referrals.ListByReferrer(ctx, referrerID)
}
