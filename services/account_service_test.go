package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
)

func TestCreateAccount(t *testing.T) {
	s := newTestStack(t)

	user := s.mustCreate(t, 100, "Abebe")

	if user.Status != models.UserStatusActive {
		t.Errorf("status = %q, want %q", user.Status, models.UserStatusActive)
	}
	if user.Balance != 0 || user.TotalEarned != 0 || user.TotalWithdrawn != 0 {
		t.Errorf("new account has non-zero ledger fields: %+v", user)
	}
	if len(user.ReferralCode) < 4 {
		t.Errorf("referral code %q too short", user.ReferralCode)
	}
	if got := user.ReferralCode[:3]; got != "ABE" {
		t.Errorf("referral code prefix = %q, want ABE", got)
	}
	checkInvariants(t, user)
}

// collidingUserRepository refuses the first n creates with ErrCodeTaken,
// exercising the code-collision retry without depending on randomness.
type collidingUserRepository struct {
	repositories.UserRepository
	collisions int
}

func (r *collidingUserRepository) Create(ctx context.Context, user *models.User) error {
	if r.collisions > 0 {
		r.collisions--
		return repositories.ErrCodeTaken
	}
	return r.UserRepository.Create(ctx, user)
}

func TestCreateAccountRetriesCodeCollision(t *testing.T) {
	users := &collidingUserRepository{
		UserRepository: repositories.NewMemoryUserRepository(),
		collisions:     2,
	}
	s := newTestStackWithUsers(t, users)

	user := s.mustCreate(t, 100, "Abebe")
	if user.ReferralCode[:3] != "ABE" {
		t.Errorf("referral code prefix = %q, want ABE", user.ReferralCode[:3])
	}
	if users.collisions != 0 {
		t.Errorf("create was not retried through the collisions, %d left", users.collisions)
	}
}

func TestCreateAccountCodeSpaceExhausted(t *testing.T) {
	users := repositories.NewMemoryUserRepository()
	s := newTestStackWithUsers(t, users)

	// Occupy every code the generator can produce for this name.
	for n := 100; n <= 999; n++ {
		err := users.Create(context.Background(), &models.User{
			TelegramID:   int64(n),
			ReferralCode: fmt.Sprintf("ABE%d", n),
		})
		if err != nil {
			t.Fatalf("seeding code ABE%d: %v", n, err)
		}
	}

	_, err := s.accounts.CreateAccount(context.Background(), 5000, "Abebe", "", "")
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("exhausted code space err = %v, want ErrStoreUnavailable", err)
	}
	if _, getErr := s.accounts.GetAccount(context.Background(), 5000); !errors.Is(getErr, models.ErrNotFound) {
		t.Errorf("account was created despite code exhaustion")
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 100, "Abebe")

	_, err := s.accounts.CreateAccount(context.Background(), 100, "Abebe", "", "")
	if !errors.Is(err, models.ErrAlreadyExists) {
		t.Fatalf("second CreateAccount err = %v, want ErrAlreadyExists", err)
	}
}

func TestApplyLedgerDelta(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 100, "Abebe")

	user, err := s.accounts.ApplyLedgerDelta(context.Background(), 100, models.LedgerDelta{
		Balance:     250,
		TotalEarned: 250,
	})
	if err != nil {
		t.Fatalf("ApplyLedgerDelta: %v", err)
	}
	if user.Balance != 250 || user.TotalEarned != 250 {
		t.Errorf("balance/earned = %d/%d, want 250/250", user.Balance, user.TotalEarned)
	}
	checkInvariants(t, user)
}

func TestApplyLedgerDeltaRejectsInconsistent(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 100, "Abebe")

	// Crediting balance without a matching earned increase would break
	// balance == earned - withdrawn.
	_, err := s.accounts.ApplyLedgerDelta(context.Background(), 100, models.LedgerDelta{Balance: 100})
	if !errors.Is(err, models.ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
	checkInvariants(t, s.account(t, 100))
}

func TestApplyLedgerDeltaRejectsNegativeBalance(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 100, "Abebe")

	_, err := s.accounts.ApplyLedgerDelta(context.Background(), 100, models.LedgerDelta{
		Balance:        -50,
		TotalWithdrawn: 50,
	})
	if !errors.Is(err, models.ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}

	user := s.account(t, 100)
	if user.Balance != 0 || user.TotalWithdrawn != 0 {
		t.Errorf("failed delta leaked into account: %+v", user)
	}
}

func TestApplyLedgerDeltaUnknownAccount(t *testing.T) {
	s := newTestStack(t)

	_, err := s.accounts.ApplyLedgerDelta(context.Background(), 404, models.LedgerDelta{
		Balance:     10,
		TotalEarned: 10,
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetStatus(t *testing.T) {
	s := newTestStack(t)
	s.mustCreate(t, 100, "Abebe")

	if err := s.accounts.SetStatus(context.Background(), 100, models.UserStatusBlocked, "spam"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	user := s.account(t, 100)
	if !user.IsBlocked() || user.BlockReason != "spam" || user.BlockedAt == nil {
		t.Errorf("block not recorded: %+v", user)
	}

	if err := s.accounts.SetStatus(context.Background(), 100, models.UserStatusActive, ""); err != nil {
		t.Fatalf("SetStatus unblock: %v", err)
	}
	user = s.account(t, 100)
	if user.IsBlocked() || user.BlockReason != "" || user.BlockedAt != nil {
		t.Errorf("unblock did not clear block fields: %+v", user)
	}
}

func TestTopReferrers(t *testing.T) {
	s := newTestStack(t)

	// Three referrers with 2, 3 and 3 paid referrals; the tie resolves
	// by registration order.
	referrers := []struct {
		id   int64
		name string
		paid int
	}{
		{1, "Lensa", 3},
		{2, "Marta", 3},
		{3, "Kebede", 2},
	}
	nextID := int64(1000)
	for _, r := range referrers {
		referrer := s.mustCreate(t, r.id, r.name)
		for i := 0; i < r.paid; i++ {
			s.mustRefer(t, referrer, nextID, "Ref")
			s.mustApprovePayment(t, nextID)
			nextID++
		}
	}
	// One account with no paid referrals stays off the board
	s.mustCreate(t, 4, "Sara")

	top, err := s.accounts.TopReferrers(context.Background(), 6)
	if err != nil {
		t.Fatalf("TopReferrers: %v", err)
	}

	wantOrder := []int64{1, 2, 3}
	if len(top) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d", len(top), len(wantOrder))
	}
	for i, want := range wantOrder {
		if top[i].TelegramID != want {
			t.Errorf("position %d: user %d, want %d", i, top[i].TelegramID, want)
		}
	}
}
