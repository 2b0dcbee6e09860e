package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Admin struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	Password  string             `json:"password,omitempty" bson:"password"`
	ActorID   int64              `json:"actorId" bson:"actorId"`
	Role      string             `json:"role" bson:"role"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// AdminDashboardStats represents statistics for the admin dashboard
type AdminDashboardStats struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalPayments      int64 `json:"totalPayments"`
	PendingPayments    int64 `json:"pendingPayments"`
	TotalWithdrawals   int64 `json:"totalWithdrawals"`
	PendingWithdrawals int64 `json:"pendingWithdrawals"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type BlockUserRequest struct {
	Reason string `json:"reason"`
}
