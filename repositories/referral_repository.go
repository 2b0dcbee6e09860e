package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
)

// ReferralRepository persists referrer->referred relationships.
type ReferralRepository interface {
	// Create inserts a pending referral; returns ErrAlreadyExists if the
	// (referrer, referred) pair was recorded before.
	Create(ctx context.Context, referral *models.Referral) error
	// MarkPaid flips the pending referral for the given referred user to
	// paid and returns it. Returns ErrNotFound when no pending referral
	// exists, which callers treat as an idempotent no-op.
	MarkPaid(ctx context.Context, referredID int64) (*models.Referral, error)
	// Reopen reverts a paid referral back to pending after a commission
	// credit could not be applied, so a later settlement can retry it.
	Reopen(ctx context.Context, referredID int64) error
	// Delete removes a pending referral whose counter bump never landed.
	Delete(ctx context.Context, referrerID, referredID int64) error
	ListByReferrer(ctx context.Context, referrerID int64) ([]models.Referral, error)
}

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Client) ReferralRepository {
	return &referralRepository{
		collection: config.GetCollection(db, "referrals"),
	}
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, referral)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return storeErr(err)
	}
	return nil
}

// MarkPaid is the idempotency guard for commission crediting: the status
// filter makes the pending->paid flip happen at most once, no matter how
// many approvals race on payments from the same referred user.
func (r *referralRepository) MarkPaid(ctx context.Context, referredID int64) (*models.Referral, error) {
	now := time.Now()
	filter := bson.M{
		"referredId": referredID,
		"status":     models.ReferralStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status": models.ReferralStatusPaid,
			"paidAt": now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var referral models.Referral
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&referral)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, decodeErr(err)
	}
	return &referral, nil
}

func (r *referralRepository) Reopen(ctx context.Context, referredID int64) error {
	filter := bson.M{
		"referredId": referredID,
		"status":     models.ReferralStatusPaid,
	}
	update := bson.M{
		"$set":   bson.M{"status": models.ReferralStatusPending},
		"$unset": bson.M{"paidAt": ""},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *referralRepository) Delete(ctx context.Context, referrerID, referredID int64) error {
	filter := bson.M{
		"referrerId": referrerID,
		"referredId": referredID,
		"status":     models.ReferralStatusPending,
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return storeErr(err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"referrerId": referrerID}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var referrals []models.Referral
	if err = cursor.All(ctx, &referrals); err != nil {
		return nil, decodeErr(err)
	}
	return referrals, nil
}
