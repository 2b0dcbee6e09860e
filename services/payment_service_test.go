package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
)

func TestSubmitPayment(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")

	payment, err := s.payments.Submit(context.Background(), 2, "receipt-42", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if payment.Amount != s.cfg.PaymentAmount {
		t.Errorf("amount = %d, want default %d", payment.Amount, s.cfg.PaymentAmount)
	}
	if payment.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", payment.Status)
	}
	if payment.UserID != 2 || payment.ProofRef != "receipt-42" {
		t.Errorf("payment fields wrong: %+v", payment)
	}
}

func TestSubmitPaymentUnknownUser(t *testing.T) {
	s := newTestStack(t)
	_, err := s.payments.Submit(context.Background(), 77, "proof", 0)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitPaymentBlockedUser(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")
	if err := s.accounts.SetStatus(context.Background(), 2, models.UserStatusBlocked, "fraud"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	_, err := s.payments.Submit(context.Background(), 2, "proof", 0)
	if !errors.Is(err, models.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

// Approving a referred user's payment must credit the referrer, never the payer.
func TestApprovePaymentCreditsReferrer(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")

	s.mustApprovePayment(t, 2)

	gotReferrer := s.account(t, 1)
	if gotReferrer.Balance != s.cfg.Commission || gotReferrer.PaidReferrals != 1 {
		t.Errorf("referrer balance/paid = %d/%d, want %d/1",
			gotReferrer.Balance, gotReferrer.PaidReferrals, s.cfg.Commission)
	}
	gotPayer := s.account(t, 2)
	if gotPayer.Balance != 0 || gotPayer.PaidReferrals != 0 {
		t.Errorf("payer must not be credited: %+v", gotPayer)
	}
	checkInvariants(t, gotReferrer)
	checkInvariants(t, gotPayer)
}

func TestApprovePaymentUnreferredUser(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")

	payment := s.mustApprovePayment(t, 2)

	got, err := s.payments.Get(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
}

func TestApprovePaymentTwice(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")
	payment := s.mustApprovePayment(t, 2)

	_, err := s.payments.Approve(context.Background(), payment.ID, testAdminID)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("second approve err = %v, want ErrInvalidTransition", err)
	}

	// The first approval's credit stands, and only once.
	got := s.account(t, 1)
	if got.Balance != s.cfg.Commission || got.PaidReferrals != 1 {
		t.Errorf("double approve mutated ledger: %+v", got)
	}
}

// A commission credit that fails after the approval must not consume
// the referral: the record goes back to pending so a later settlement
// can still pay the referrer.
func TestApprovePaymentCreditFailureReopensReferral(t *testing.T) {
	users := &flakyUserRepository{UserRepository: repositories.NewMemoryUserRepository()}
	s := newTestStackWithUsers(t, users)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")
	payment, err := s.payments.Submit(context.Background(), 2, "proof", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	users.failDeltas = 1
	_, err = s.payments.Approve(context.Background(), payment.ID, testAdminID)
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("approve with failing credit err = %v, want ErrStoreUnavailable", err)
	}

	referrals, err := s.referrals.ListByReferrer(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByReferrer: %v", err)
	}
	if len(referrals) != 1 || referrals[0].Status != models.ReferralStatusPending {
		t.Fatalf("referral not reopened after credit failure: %+v", referrals)
	}
	got := s.account(t, 1)
	if got.Balance != 0 || got.PaidReferrals != 0 || got.UnpaidReferrals != 1 {
		t.Errorf("ledger mutated by failed credit: %+v", got)
	}

	// The store recovered; settling again pays the commission.
	if err := s.referrals.MarkPaid(context.Background(), 2); err != nil {
		t.Fatalf("MarkPaid after recovery: %v", err)
	}
	got = s.account(t, 1)
	if got.Balance != s.cfg.Commission || got.PaidReferrals != 1 || got.UnpaidReferrals != 0 {
		t.Errorf("commission not recovered: %+v", got)
	}
	checkInvariants(t, got)
}

func TestRejectPayment(t *testing.T) {
	s := newTestStack(t)
	referrer := s.mustCreate(t, 1, "Abebe")
	s.mustRefer(t, referrer, 2, "Kebede")

	payment, err := s.payments.Submit(context.Background(), 2, "blurry", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	rejected, err := s.payments.Reject(context.Background(), payment.ID, "unreadable proof", testAdminID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.StatusRejected || rejected.RejectionReason != "unreadable proof" {
		t.Errorf("rejected = %+v", rejected)
	}
	if rejected.ResolvedBy != testAdminID || rejected.ResolvedAt == nil {
		t.Errorf("resolution audit fields missing: %+v", rejected)
	}

	// A rejected payment settles no referral.
	got := s.account(t, 1)
	if got.Balance != 0 || got.PaidReferrals != 0 {
		t.Errorf("reject must not credit referrer: %+v", got)
	}
}

func TestRejectThenApprove(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")

	payment, err := s.payments.Submit(context.Background(), 2, "proof", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.payments.Reject(context.Background(), payment.ID, "no", testAdminID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	_, err = s.payments.Approve(context.Background(), payment.ID, testAdminID)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("approve after reject err = %v, want ErrInvalidTransition", err)
	}
}

func TestApprovePaymentNonAdmin(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")
	payment, err := s.payments.Submit(context.Background(), 2, "proof", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = s.payments.Approve(context.Background(), payment.ID, 2)
	if !errors.Is(err, models.ErrAccessDenied) {
		t.Fatalf("non-admin approve err = %v, want ErrAccessDenied", err)
	}
	got, err := s.payments.Get(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want pending after denied approve", got.Status)
	}
}

func TestApproveMissingPayment(t *testing.T) {
	s := newTestStack(t)
	_, err := s.payments.Approve(context.Background(), "PAY_77_1", testAdminID)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListPendingPaymentsOrder(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 2, "Kebede")
	s.mustCreate(t, 3, "Marta")

	first, err := s.payments.Submit(context.Background(), 2, "a", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, err := s.payments.Submit(context.Background(), 3, "b", 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	pending, err := s.payments.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Errorf("pending order wrong: %+v", pending)
	}

	if _, err := s.payments.Approve(context.Background(), first.ID, testAdminID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	pending, err = s.payments.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("resolved payment still listed: %+v", pending)
	}
}
