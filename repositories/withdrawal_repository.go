package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
)

// WithdrawalRepository persists withdrawal requests. The same
// status-guarded Resolve contract as payments, plus Reopen: approval
// debits the balance only after winning the status flip, and if the
// balance guard then fails the record is moved back to pending instead
// of being stranded approved-but-unpaid.
type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	Get(ctx context.Context, id string) (*models.Withdrawal, error)
	Resolve(ctx context.Context, id, status string, resolvedBy int64, reason string) (*models.Withdrawal, error)
	// Reopen reverts an approved withdrawal to pending after a failed
	// balance debit.
	Reopen(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]models.Withdrawal, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type withdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Client) WithdrawalRepository {
	return &withdrawalRepository{
		collection: config.GetCollection(db, "withdrawals"),
	}
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	_, err := r.collection.InsertOne(ctx, withdrawal)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return storeErr(err)
	}
	return nil
}

func (r *withdrawalRepository) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, decodeErr(err)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) Resolve(ctx context.Context, id, status string, resolvedBy int64, reason string) (*models.Withdrawal, error) {
	now := time.Now()
	set := bson.M{
		"status":     status,
		"resolvedAt": now,
		"resolvedBy": resolvedBy,
	}
	if reason != "" {
		set["rejectionReason"] = reason
	}

	filter := bson.M{"_id": id, "status": models.StatusPending}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var withdrawal models.Withdrawal
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if countErr != nil {
				return nil, storeErr(countErr)
			}
			if count == 0 {
				return nil, models.ErrNotFound
			}
			return nil, models.ErrInvalidTransition
		}
		return nil, decodeErr(err)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) Reopen(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "status": models.StatusApproved}
	update := bson.M{
		"$set":   bson.M{"status": models.StatusPending},
		"$unset": bson.M{"resolvedAt": "", "resolvedBy": ""},
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

func (r *withdrawalRepository) ListPending(ctx context.Context) ([]models.Withdrawal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var withdrawals []models.Withdrawal
	if err = cursor.All(ctx, &withdrawals); err != nil {
		return nil, decodeErr(err)
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

func (r *withdrawalRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}
