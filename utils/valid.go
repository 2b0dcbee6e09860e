// utils/valid.go
package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptRegex   = regexp.MustCompile(`<script[^>]*>.*?</script>`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// SanitizeInput cleans user-supplied free text (names, proof references,
// rejection reasons) before it is stored or echoed back.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = scriptRegex.ReplaceAllString(input, "")
	input = html.EscapeString(input)

	// Remove control characters
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	return input
}

// SanitizeAccountNumber keeps only digits and a leading +, the shape
// payout account and phone numbers share.
func SanitizeAccountNumber(account string) string {
	account = strings.TrimSpace(account)
	keepPlus := strings.HasPrefix(account, "+")
	account = nonDigitRegex.ReplaceAllString(account, "")
	if keepPlus && account != "" {
		account = "+" + account
	}
	return account
}
