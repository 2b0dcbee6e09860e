// models/errors.go
package models

import (
	"errors"
	"fmt"
)

// Typed failures returned by the ledger and workflow services. Everything
// except ErrStoreUnavailable is terminal for the request; callers must
// surface it, never retry it.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrInvariantViolation  = errors.New("ledger invariant violation")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrNotEligible         = errors.New("not eligible for withdrawal")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidReferral     = errors.New("invalid referral")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrMalformedRecord     = errors.New("malformed record")
)

// EligibilityError reports how many paid referrals the user still needs.
// It unwraps to ErrNotEligible.
type EligibilityError struct {
	Required int64 `json:"required"`
	Have     int64 `json:"have"`
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("not eligible: need %d more paid referrals (%d of %d)",
		e.Required-e.Have, e.Have, e.Required)
}

func (e *EligibilityError) Unwrap() error { return ErrNotEligible }

// Needed returns the number of additional paid referrals required.
func (e *EligibilityError) Needed() int64 { return e.Required - e.Have }

// AmountError reports a withdrawal amount below the configured minimum.
// It unwraps to ErrBelowMinimum.
type AmountError struct {
	Minimum int64 `json:"minimum"`
	Amount  int64 `json:"amount"`
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount %d below minimum %d", e.Amount, e.Minimum)
}

func (e *AmountError) Unwrap() error { return ErrBelowMinimum }

// BalanceError reports a requested amount exceeding the available
// balance. It unwraps to ErrInsufficientBalance.
type BalanceError struct {
	Balance   int64 `json:"balance"`
	Requested int64 `json:"requested"`
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Balance)
}

func (e *BalanceError) Unwrap() error { return ErrInsufficientBalance }
