package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dagimsenay/refpay_backend/models"
)

// In-memory implementations of the repository interfaces. Each guarded
// update runs under the repository mutex, giving the same atomicity as
// the filtered Mongo updates; tests exercise the services against these.

type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*models.User
	codes map[string]int64
	seq   int64 // registration order, for leaderboard tie-breaking
	order map[int64]int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*models.User),
		codes: make(map[string]int64),
		order: make(map[int64]int64),
	}
}

func (r *MemoryUserRepository) Get(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) FindByReferralCode(_ context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *r.users[id]
	return &copied, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.TelegramID]; ok {
		return models.ErrAlreadyExists
	}
	if _, ok := r.codes[user.ReferralCode]; ok {
		return ErrCodeTaken
	}
	copied := *user
	r.users[user.TelegramID] = &copied
	r.codes[user.ReferralCode] = user.TelegramID
	r.seq++
	r.order[user.TelegramID] = r.seq
	return nil
}

func (r *MemoryUserRepository) ApplyDelta(_ context.Context, id int64, delta models.LedgerDelta) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if user.Balance+delta.Balance < 0 ||
		user.TotalEarned+delta.TotalEarned < 0 ||
		user.TotalWithdrawn+delta.TotalWithdrawn < 0 ||
		user.PaidReferrals+delta.PaidReferrals < 0 ||
		user.UnpaidReferrals+delta.UnpaidReferrals < 0 ||
		user.TotalReferrals+delta.TotalReferrals < 0 {
		return nil, models.ErrInvariantViolation
	}
	user.Balance += delta.Balance
	user.TotalEarned += delta.TotalEarned
	user.TotalWithdrawn += delta.TotalWithdrawn
	user.PaidReferrals += delta.PaidReferrals
	user.UnpaidReferrals += delta.UnpaidReferrals
	user.TotalReferrals += delta.TotalReferrals
	user.LastSeen = time.Now()
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) SetStatus(_ context.Context, id int64, status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return models.ErrNotFound
	}
	user.Status = status
	if status == models.UserStatusBlocked {
		user.BlockReason = reason
		now := time.Now()
		user.BlockedAt = &now
	} else {
		user.BlockReason = ""
		user.BlockedAt = nil
	}
	return nil
}

func (r *MemoryUserRepository) TopReferrers(_ context.Context, limit int64) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []models.User
	for _, u := range r.users {
		if u.PaidReferrals >= 1 {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].PaidReferrals != users[j].PaidReferrals {
			return users[i].PaidReferrals > users[j].PaidReferrals
		}
		return r.order[users[i].TelegramID] < r.order[users[j].TelegramID]
	})
	if int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type MemoryReferralRepository struct {
	mu        sync.Mutex
	referrals []*models.Referral
}

func NewMemoryReferralRepository() *MemoryReferralRepository {
	return &MemoryReferralRepository{}
}

func (r *MemoryReferralRepository) Create(_ context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.referrals {
		if existing.ReferrerID == referral.ReferrerID && existing.ReferredID == referral.ReferredID {
			return models.ErrAlreadyExists
		}
	}
	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	copied := *referral
	r.referrals = append(r.referrals, &copied)
	return nil
}

func (r *MemoryReferralRepository) MarkPaid(_ context.Context, referredID int64) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, referral := range r.referrals {
		if referral.ReferredID == referredID && referral.Status == models.ReferralStatusPending {
			referral.Status = models.ReferralStatusPaid
			now := time.Now()
			referral.PaidAt = &now
			copied := *referral
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryReferralRepository) Reopen(_ context.Context, referredID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, referral := range r.referrals {
		if referral.ReferredID == referredID && referral.Status == models.ReferralStatusPaid {
			referral.Status = models.ReferralStatusPending
			referral.PaidAt = nil
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *MemoryReferralRepository) Delete(_ context.Context, referrerID, referredID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, referral := range r.referrals {
		if referral.ReferrerID == referrerID && referral.ReferredID == referredID &&
			referral.Status == models.ReferralStatusPending {
			r.referrals = append(r.referrals[:i], r.referrals[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *MemoryReferralRepository) ListByReferrer(_ context.Context, referrerID int64) ([]models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Referral
	for _, referral := range r.referrals {
		if referral.ReferrerID == referrerID {
			out = append(out, *referral)
		}
	}
	return out, nil
}

type MemoryPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	order    []string
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]*models.Payment)}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; ok {
		return models.ErrAlreadyExists
	}
	copied := *payment
	r.payments[payment.ID] = &copied
	r.order = append(r.order, payment.ID)
	return nil
}

func (r *MemoryPaymentRepository) Get(_ context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (r *MemoryPaymentRepository) Resolve(_ context.Context, id, status string, resolvedBy int64, reason string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if payment.Status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}
	now := time.Now()
	payment.Status = status
	payment.ResolvedAt = &now
	payment.ResolvedBy = resolvedBy
	if reason != "" {
		payment.RejectionReason = reason
	}
	copied := *payment
	return &copied, nil
}

func (r *MemoryPaymentRepository) ListPending(_ context.Context) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, id := range r.order {
		if p := r.payments[id]; p.Status == models.StatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *MemoryPaymentRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.payments)), nil
}

func (r *MemoryPaymentRepository) CountByStatus(_ context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.payments {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

type MemoryWithdrawalRepository struct {
	mu          sync.Mutex
	withdrawals map[string]*models.Withdrawal
	order       []string
}

func NewMemoryWithdrawalRepository() *MemoryWithdrawalRepository {
	return &MemoryWithdrawalRepository{withdrawals: make(map[string]*models.Withdrawal)}
}

func (r *MemoryWithdrawalRepository) Create(_ context.Context, withdrawal *models.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.withdrawals[withdrawal.ID]; ok {
		return models.ErrAlreadyExists
	}
	copied := *withdrawal
	r.withdrawals[withdrawal.ID] = &copied
	r.order = append(r.order, withdrawal.ID)
	return nil
}

func (r *MemoryWithdrawalRepository) Get(_ context.Context, id string) (*models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	withdrawal, ok := r.withdrawals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *withdrawal
	return &copied, nil
}

func (r *MemoryWithdrawalRepository) Resolve(_ context.Context, id, status string, resolvedBy int64, reason string) (*models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	withdrawal, ok := r.withdrawals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if withdrawal.Status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}
	now := time.Now()
	withdrawal.Status = status
	withdrawal.ResolvedAt = &now
	withdrawal.ResolvedBy = resolvedBy
	if reason != "" {
		withdrawal.RejectionReason = reason
	}
	copied := *withdrawal
	return &copied, nil
}

func (r *MemoryWithdrawalRepository) Reopen(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	withdrawal, ok := r.withdrawals[id]
	if !ok || withdrawal.Status != models.StatusApproved {
		return models.ErrNotFound
	}
	withdrawal.Status = models.StatusPending
	withdrawal.ResolvedAt = nil
	withdrawal.ResolvedBy = 0
	return nil
}

func (r *MemoryWithdrawalRepository) ListPending(_ context.Context) ([]models.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Withdrawal
	for _, id := range r.order {
		if w := r.withdrawals[id]; w.Status == models.StatusPending {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *MemoryWithdrawalRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.withdrawals)), nil
}

func (r *MemoryWithdrawalRepository) CountByStatus(_ context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, w := range r.withdrawals {
		if w.Status == status {
			n++
		}
	}
	return n, nil
}
