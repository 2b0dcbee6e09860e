package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// GenerateReferralCode builds a referral code from a three-letter
// uppercase prefix of the display name and a random numeric suffix,
// e.g. "ABE742". The prefix is cosmetic; uniqueness is enforced by the
// store's unique index and collisions are retried by the caller with a
// fresh suffix.
func GenerateReferralCode(firstName string) (string, error) {
	prefix := namePrefix(firstName)

	// three digits, 100..999
	n, err := rand.Int(rand.Reader, big.NewInt(900))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", prefix, n.Int64()+100), nil
}

// namePrefix extracts the first three letters of the name, uppercased,
// padded with 'X' for short or non-alphabetic names.
func namePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}

// BuildInviteLink returns the deep link a user shares to refer others.
func BuildInviteLink(botUsername, referralCode string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, referralCode)
}
