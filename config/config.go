// config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
)

// Defaults for the referral ledger. Every value can be overridden
// through the environment.
const (
	DefaultPaymentAmount    = 500
	DefaultCommission       = 250
	DefaultMinPaidReferrals = 4
	DefaultMinWithdrawal    = 100
)

// Config carries the tunable business constants and the privileged
// actor set. It is loaded once in main and injected into the services.
type Config struct {
	PaymentAmount    int64 // default amount attached to a submitted payment proof
	Commission       int64 // credited to the referrer per paid referral
	MinPaidReferrals int64 // withdrawal eligibility threshold
	MinWithdrawal    int64 // minimum withdrawal amount
	AdminIDs         []int64
	BotUsername      string // used to build referral deep links
	JWTSecret        string
}

// LoadConfig reads the business configuration from the environment.
func LoadConfig() *Config {
	return &Config{
		PaymentAmount:    envInt64("DEFAULT_PAYMENT_AMOUNT", DefaultPaymentAmount),
		Commission:       envInt64("COMMISSION_PER_REFERRAL", DefaultCommission),
		MinPaidReferrals: envInt64("MIN_PAID_REFERRALS", DefaultMinPaidReferrals),
		MinWithdrawal:    envInt64("MIN_WITHDRAWAL_AMOUNT", DefaultMinWithdrawal),
		AdminIDs:         envIDList("ADMIN_IDS"),
		BotUsername:      os.Getenv("BOT_USERNAME"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
	}
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envIDList(key string) []int64 {
	var ids []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
