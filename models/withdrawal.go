// models/withdrawal.go
package models

import (
	"fmt"
	"time"
)

// Withdrawal is a request to pay out part of an account's balance. The
// amount is fixed at creation; the balance is debited only on approval.
type Withdrawal struct {
	ID              string     `json:"withdrawalId" bson:"_id"`
	UserID          int64      `json:"userId" bson:"userId"`
	Amount          int64      `json:"amount" bson:"amount"`
	PaymentMethod   string     `json:"paymentMethod" bson:"paymentMethod"`
	AccountNumber   string     `json:"accountNumber" bson:"accountNumber"`
	Status          string     `json:"status" bson:"status"`
	RequestedAt     time.Time  `json:"requestedAt" bson:"requestedAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ResolvedBy      int64      `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
}

// NewWithdrawalID builds a withdrawal id unique per user and request time.
func NewWithdrawalID(userID int64, at time.Time) string {
	return fmt.Sprintf("WD_%d_%d", userID, at.UnixNano())
}

// WithdrawalRequest is the request-withdrawal request body.
type WithdrawalRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod string `json:"paymentMethod" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
}
