package services

import (
	"context"
	"testing"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
)

const testAdminID int64 = 9000

// testStack wires the full service graph over in-memory repositories.
type testStack struct {
	cfg         *config.Config
	gate        *Gate
	accounts    *AccountService
	referrals   *ReferralService
	payments    *PaymentService
	withdrawals *WithdrawalService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	return newTestStackWithUsers(t, repositories.NewMemoryUserRepository())
}

// newTestStackWithUsers builds the stack over a caller-supplied user
// repository, so tests can inject store failures.
func newTestStackWithUsers(t *testing.T, users repositories.UserRepository) *testStack {
	t.Helper()
	cfg := &config.Config{
		PaymentAmount:    500,
		Commission:       250,
		MinPaidReferrals: 4,
		MinWithdrawal:    100,
		AdminIDs:         []int64{testAdminID},
		BotUsername:      "refpay_test_bot",
	}
	gate := NewGate(cfg.AdminIDs)
	accounts := NewAccountService(users, nil, cfg)
	referrals := NewReferralService(accounts, repositories.NewMemoryReferralRepository(), cfg)
	payments := NewPaymentService(accounts, referrals, repositories.NewMemoryPaymentRepository(), gate, cfg)
	withdrawals := NewWithdrawalService(accounts, repositories.NewMemoryWithdrawalRepository(), gate, cfg)
	return &testStack{
		cfg:         cfg,
		gate:        gate,
		accounts:    accounts,
		referrals:   referrals,
		payments:    payments,
		withdrawals: withdrawals,
	}
}

// flakyUserRepository wraps a user repository and fails the next
// failDeltas calls to ApplyDelta with ErrStoreUnavailable.
type flakyUserRepository struct {
	repositories.UserRepository
	failDeltas int
}

func (r *flakyUserRepository) ApplyDelta(ctx context.Context, id int64, delta models.LedgerDelta) (*models.User, error) {
	if r.failDeltas > 0 {
		r.failDeltas--
		return nil, models.ErrStoreUnavailable
	}
	return r.UserRepository.ApplyDelta(ctx, id, delta)
}

func (s *testStack) mustCreate(t *testing.T, id int64, name string) *models.User {
	t.Helper()
	user, err := s.accounts.CreateAccount(context.Background(), id, name, "", "")
	if err != nil {
		t.Fatalf("CreateAccount(%d): %v", id, err)
	}
	return user
}

// mustRefer registers a new user through the referrer's code.
func (s *testStack) mustRefer(t *testing.T, referrer *models.User, referredID int64, name string) *models.User {
	t.Helper()
	user := s.mustCreate(t, referredID, name)
	if err := s.referrals.RecordReferral(context.Background(), referrer.ReferralCode, referredID); err != nil {
		t.Fatalf("RecordReferral(%s, %d): %v", referrer.ReferralCode, referredID, err)
	}
	return user
}

// mustApprovePayment submits and approves a payment for the given user.
func (s *testStack) mustApprovePayment(t *testing.T, userID int64) *models.Payment {
	t.Helper()
	payment, err := s.payments.Submit(context.Background(), userID, "proof", 0)
	if err != nil {
		t.Fatalf("Submit(%d): %v", userID, err)
	}
	if _, err := s.payments.Approve(context.Background(), payment.ID, testAdminID); err != nil {
		t.Fatalf("Approve(%s): %v", payment.ID, err)
	}
	return payment
}

func (s *testStack) account(t *testing.T, id int64) *models.User {
	t.Helper()
	user, err := s.accounts.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccount(%d): %v", id, err)
	}
	return user
}

// checkInvariants asserts the account-level ledger invariants.
func checkInvariants(t *testing.T, u *models.User) {
	t.Helper()
	if u.TotalReferrals != u.PaidReferrals+u.UnpaidReferrals {
		t.Errorf("user %d: totalReferrals = %d, want paid(%d) + unpaid(%d)",
			u.TelegramID, u.TotalReferrals, u.PaidReferrals, u.UnpaidReferrals)
	}
	if u.Balance != u.TotalEarned-u.TotalWithdrawn {
		t.Errorf("user %d: balance = %d, want earned(%d) - withdrawn(%d)",
			u.TelegramID, u.Balance, u.TotalEarned, u.TotalWithdrawn)
	}
	if u.Balance < 0 || u.TotalEarned < 0 || u.TotalWithdrawn < 0 ||
		u.PaidReferrals < 0 || u.UnpaidReferrals < 0 || u.TotalReferrals < 0 {
		t.Errorf("user %d: negative ledger field: %+v", u.TelegramID, u)
	}
}
