package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
)

func TestRecordReferral(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")

	got := s.account(t, 1)
	if got.UnpaidReferrals != 1 || got.TotalReferrals != 1 || got.PaidReferrals != 0 {
		t.Errorf("counters = paid %d / unpaid %d / total %d, want 0/1/1",
			got.PaidReferrals, got.UnpaidReferrals, got.TotalReferrals)
	}
	if got.Balance != 0 {
		t.Errorf("recording a referral must not credit balance, got %d", got.Balance)
	}
	checkInvariants(t, got)
}

func TestRecordReferralUnknownCode(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")

	// An invite link with a dead code must not fail registration.
	if err := s.referrals.RecordReferral(context.Background(), "ZZZ999", 2); err != nil {
		t.Fatalf("unknown code should be a no-op, got %v", err)
	}
}

func TestRecordReferralSelf(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")

	err := s.referrals.RecordReferral(context.Background(), referrer.ReferralCode, 1)
	if !errors.Is(err, models.ErrInvalidReferral) {
		t.Fatalf("self-referral err = %v, want ErrInvalidReferral", err)
	}

	got := s.account(t, 1)
	if got.TotalReferrals != 0 {
		t.Errorf("self-referral must not bump counters: %+v", got)
	}
}

func TestRecordReferralBlockedReferrer(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustCreate(t, 2, "Kebede")
	if err := s.accounts.SetStatus(context.Background(), 1, models.UserStatusBlocked, "spam"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := s.referrals.RecordReferral(context.Background(), referrer.ReferralCode, 2); err != nil {
		t.Fatalf("blocked referrer should be a silent no-op, got %v", err)
	}
	got := s.account(t, 1)
	if got.TotalReferrals != 0 {
		t.Errorf("blocked referrer must not gain referrals: %+v", got)
	}
}

func TestRecordReferralDuplicatePair(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")

	// Second registration event for the same pair changes nothing.
	if err := s.referrals.RecordReferral(context.Background(), referrer.ReferralCode, 2); err != nil {
		t.Fatalf("duplicate pair should be a no-op, got %v", err)
	}
	got := s.account(t, 1)
	if got.TotalReferrals != 1 || got.UnpaidReferrals != 1 {
		t.Errorf("duplicate pair double-counted: %+v", got)
	}
}

// A counter bump that fails after the referral insert must remove the
// record again, so a retried attribution is not swallowed by the
// duplicate-pair branch with the counters left behind.
func TestRecordReferralCounterFailureRollsBack(t *testing.T) {
	users := &flakyUserRepository{UserRepository: repositories.NewMemoryUserRepository()}
	s := newTestStackWithUsers(t, users)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustCreate(t, 2, "Kebede")

	users.failDeltas = 1
	err := s.referrals.RecordReferral(context.Background(), referrer.ReferralCode, 2)
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}

	referrals, err := s.referrals.ListByReferrer(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByReferrer: %v", err)
	}
	if len(referrals) != 0 {
		t.Fatalf("referral left behind after counter failure: %+v", referrals)
	}

	// Retrying the attribution now succeeds and counts once.
	if err := s.referrals.RecordReferral(context.Background(), referrer.ReferralCode, 2); err != nil {
		t.Fatalf("retried RecordReferral: %v", err)
	}
	got := s.account(t, 1)
	if got.UnpaidReferrals != 1 || got.TotalReferrals != 1 {
		t.Errorf("counters after retry = unpaid %d / total %d, want 1/1",
			got.UnpaidReferrals, got.TotalReferrals)
	}
	checkInvariants(t, got)
}

func TestMarkPaidCreditsReferrer(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")

	if err := s.referrals.MarkPaid(context.Background(), 2); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	got := s.account(t, 1)
	if got.PaidReferrals != 1 || got.UnpaidReferrals != 0 || got.TotalReferrals != 1 {
		t.Errorf("counters = paid %d / unpaid %d / total %d, want 1/0/1",
			got.PaidReferrals, got.UnpaidReferrals, got.TotalReferrals)
	}
	if got.Balance != s.cfg.Commission || got.TotalEarned != s.cfg.Commission {
		t.Errorf("balance/earned = %d/%d, want %d/%d",
			got.Balance, got.TotalEarned, s.cfg.Commission, s.cfg.Commission)
	}
	checkInvariants(t, got)
}

func TestMarkPaidIdempotent(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")

	if err := s.referrals.MarkPaid(context.Background(), 2); err != nil {
		t.Fatalf("first MarkPaid: %v", err)
	}
	if err := s.referrals.MarkPaid(context.Background(), 2); err != nil {
		t.Fatalf("second MarkPaid should be a no-op, got %v", err)
	}

	got := s.account(t, 1)
	if got.Balance != s.cfg.Commission || got.PaidReferrals != 1 {
		t.Errorf("second MarkPaid changed state: %+v", got)
	}
}

func TestMarkPaidUnreferredUser(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")

	// A payer who was never referred settles nothing.
	if err := s.referrals.MarkPaid(context.Background(), 2); err != nil {
		t.Fatalf("MarkPaid for unreferred user should be a no-op, got %v", err)
	}
}

func TestListByReferrer(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")
	s.mustRefer(t, referrer, 3, "Marta")

	referrals, err := s.referrals.ListByReferrer(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByReferrer: %v", err)
	}
	if len(referrals) != 2 {
		t.Fatalf("got %d referrals, want 2", len(referrals))
	}
	for _, r := range referrals {
		if r.Status != models.ReferralStatusPending {
			t.Errorf("referral %d status = %q, want pending", r.ReferredID, r.Status)
		}
	}
}
