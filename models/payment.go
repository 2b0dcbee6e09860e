// models/payment.go
package models

import (
	"fmt"
	"time"
)

// Payment and withdrawal resolution statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Payment is a user-submitted payment proof awaiting admin verification.
// Once resolved (approved or rejected) the record is frozen.
type Payment struct {
	ID              string     `json:"paymentId" bson:"_id"`
	UserID          int64      `json:"userId" bson:"userId"`
	Amount          int64      `json:"amount" bson:"amount"`
	ProofRef        string     `json:"proofRef" bson:"proofRef"`
	Status          string     `json:"status" bson:"status"`
	SubmittedAt     time.Time  `json:"submittedAt" bson:"submittedAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ResolvedBy      int64      `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
}

// NewPaymentID builds a payment id unique per user and submission time.
func NewPaymentID(userID int64, at time.Time) string {
	return fmt.Sprintf("PAY_%d_%d", userID, at.UnixNano())
}

// PaymentRequest is the submit-payment request body.
type PaymentRequest struct {
	ProofRef string `json:"proofRef"`
	Amount   int64  `json:"amount"`
}

// ResolveRequest carries the optional rejection reason for admin
// resolution endpoints.
type ResolveRequest struct {
	Reason string `json:"reason"`
}
