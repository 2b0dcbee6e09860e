// models/referral.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referral statuses
const (
	ReferralStatusPending = "pending"
	ReferralStatusPaid    = "paid"
)

// Referral records that ReferredID registered through ReferrerID's code.
// At most one referral exists per (referrer, referred) pair; it moves
// pending -> paid exactly once, when the referred user's payment is
// approved.
type Referral struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ReferrerID int64              `json:"referrerId" bson:"referrerId"`
	ReferredID int64              `json:"referredId" bson:"referredId"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	PaidAt     *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}
