// models/user.go
package models

import (
	"time"
)

// User account statuses
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
	UserStatusPending = "pending"
)

// User model. The _id is the stable external (Telegram) identity; all
// money fields are integer minor currency units.
type User struct {
	TelegramID       int64      `json:"telegramId" bson:"_id"`
	Username         string     `json:"username,omitempty" bson:"username,omitempty"`
	FirstName        string     `json:"firstName" bson:"firstName"`
	LastName         string     `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Language         string     `json:"language,omitempty" bson:"language,omitempty"`
	Status           string     `json:"status" bson:"status"`
	Balance          int64      `json:"balance" bson:"balance"`
	TotalEarned      int64      `json:"totalEarned" bson:"totalEarned"`
	TotalWithdrawn   int64      `json:"totalWithdrawn" bson:"totalWithdrawn"`
	PaidReferrals    int64      `json:"paidReferrals" bson:"paidReferrals"`
	UnpaidReferrals  int64      `json:"unpaidReferrals" bson:"unpaidReferrals"`
	TotalReferrals   int64      `json:"totalReferrals" bson:"totalReferrals"`
	ReferralCode     string     `json:"referralCode" bson:"referralCode"`
	BlockReason      string     `json:"blockReason,omitempty" bson:"blockReason,omitempty"`
	BlockedAt        *time.Time `json:"blockedAt,omitempty" bson:"blockedAt,omitempty"`
	RegistrationDate time.Time  `json:"registrationDate" bson:"registrationDate"`
	LastSeen         time.Time  `json:"lastSeen" bson:"lastSeen"`
}

// IsBlocked reports whether the account is soft-blocked.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

// LedgerDelta is a signed, atomic adjustment to an account's balance and
// referral counters. A delta is applied as a single guarded store update;
// it either applies completely or not at all.
type LedgerDelta struct {
	Balance         int64
	TotalEarned     int64
	TotalWithdrawn  int64
	PaidReferrals   int64
	UnpaidReferrals int64
	TotalReferrals  int64
}

// Consistent reports whether the delta preserves the derived account
// invariants (balance == earned - withdrawn, total == paid + unpaid).
func (d LedgerDelta) Consistent() bool {
	return d.Balance == d.TotalEarned-d.TotalWithdrawn &&
		d.TotalReferrals == d.PaidReferrals+d.UnpaidReferrals
}

// Zero reports whether the delta changes nothing.
func (d LedgerDelta) Zero() bool {
	return d == LedgerDelta{}
}

// Response is the standard API response envelope
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
