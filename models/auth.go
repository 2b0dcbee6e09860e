// models/auth.go

package models

type RegisterRequest struct {
	TelegramID   int64  `json:"telegramId" validate:"required"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName,omitempty"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type LoginRequest struct {
	TelegramID int64 `json:"telegramId" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ReferralInfo is the payload of the referral-link endpoint.
type ReferralInfo struct {
	ReferralCode string `json:"referralCode"`
	InviteLink   string `json:"inviteLink"`
	Commission   int64  `json:"commission"`
}

// BalanceInfo is the payload of the account endpoint: current ledger
// state plus the numbers the front-end needs to render eligibility.
type BalanceInfo struct {
	User            *User `json:"user"`
	Eligible        bool  `json:"eligible"`
	ReferralsNeeded int64 `json:"referralsNeeded"`
	MinWithdrawal   int64 `json:"minWithdrawal"`
}
