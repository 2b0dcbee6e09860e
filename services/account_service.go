// services/account_service.go
package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
	"github.com/dagimsenay/refpay_backend/repositories"
	"github.com/dagimsenay/refpay_backend/utils"
)

const (
	// referral code collisions are retried with a fresh random suffix
	maxCodeAttempts = 5

	leaderboardKey      = "leaderboard:top"
	leaderboardSize     = 10
	leaderboardCacheTTL = 30 * time.Second
)

// AccountService owns the User entity: creation, lookups and every
// ledger mutation. ApplyLedgerDelta delegates to the repository's
// guarded update, so concurrent callers on the same account can never
// lose an update or break an invariant.
type AccountService struct {
	users repositories.UserRepository
	cache *redis.Client // nil when Redis is unavailable
	cfg   *config.Config
}

func NewAccountService(users repositories.UserRepository, cache *redis.Client, cfg *config.Config) *AccountService {
	return &AccountService{users: users, cache: cache, cfg: cfg}
}

// GetAccount returns the account for the given external id.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.User, error) {
	return s.users.Get(ctx, id)
}

// FindByReferralCode resolves an account from its referral code.
func (s *AccountService) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return s.users.FindByReferralCode(ctx, code)
}

// CreateAccount registers a new account with zeroed ledger fields and a
// unique referral code. Returns ErrAlreadyExists if the id is taken.
func (s *AccountService) CreateAccount(ctx context.Context, id int64, firstName, lastName, username string) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		TelegramID:       id,
		Username:         username,
		FirstName:        firstName,
		LastName:         lastName,
		Language:         "en",
		Status:           models.UserStatusActive,
		RegistrationDate: now,
		LastSeen:         now,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := utils.GenerateReferralCode(firstName)
		if err != nil {
			return nil, models.ErrStoreUnavailable
		}
		user.ReferralCode = code

		err = s.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if err == repositories.ErrCodeTaken {
			continue
		}
		return nil, err
	}
	log.Printf("referral code generation exhausted %d attempts for user %d", maxCodeAttempts, id)
	return nil, models.ErrStoreUnavailable
}

// ApplyLedgerDelta atomically adjusts an account's balance and counters.
// The delta itself must keep the derived invariants intact; a delta that
// would drive any field negative fails with ErrInvariantViolation and
// changes nothing.
func (s *AccountService) ApplyLedgerDelta(ctx context.Context, id int64, delta models.LedgerDelta) (*models.User, error) {
	if !delta.Consistent() {
		return nil, models.ErrInvariantViolation
	}
	user, err := s.users.ApplyDelta(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	if delta.PaidReferrals != 0 {
		s.invalidateLeaderboard(ctx)
	}
	return user, nil
}

// SetStatus blocks or unblocks an account; independent of the ledger.
func (s *AccountService) SetStatus(ctx context.Context, id int64, status, reason string) error {
	return s.users.SetStatus(ctx, id, status, reason)
}

// TopReferrers returns the top accounts by paid referrals, descending,
// ties broken by registration order. Results up to the cache size are
// served from Redis when available.
func (s *AccountService) TopReferrers(ctx context.Context, limit int64) ([]models.User, error) {
	if limit <= 0 || limit > leaderboardSize {
		return s.users.TopReferrers(ctx, limit)
	}

	if cached := s.cachedLeaderboard(ctx); cached != nil {
		if int64(len(cached)) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	users, err := s.users.TopReferrers(ctx, leaderboardSize)
	if err != nil {
		return nil, err
	}
	s.storeLeaderboard(ctx, users)
	if int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

// UserCount returns the number of registered accounts.
func (s *AccountService) UserCount(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

func (s *AccountService) cachedLeaderboard(ctx context.Context) []models.User {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, leaderboardKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("leaderboard cache read failed: %v", err)
		}
		return nil
	}
	var users []models.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil
	}
	return users
}

func (s *AccountService) storeLeaderboard(ctx context.Context, users []models.User) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, leaderboardKey, raw, leaderboardCacheTTL).Err(); err != nil {
		log.Printf("leaderboard cache write failed: %v", err)
	}
}

func (s *AccountService) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, leaderboardKey).Err(); err != nil {
		log.Printf("leaderboard cache invalidation failed: %v", err)
	}
}
