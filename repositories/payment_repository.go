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

// PaymentRepository persists payment proofs. Resolve is the single
// terminal transition: a status-guarded update that succeeds at most once
// per payment.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Get(ctx context.Context, id string) (*models.Payment, error)
	// Resolve moves a pending payment to the given terminal status.
	// Returns ErrNotFound if the id does not resolve and
	// ErrInvalidTransition if the payment exists but is no longer pending.
	Resolve(ctx context.Context, id, status string, resolvedBy int64, reason string) (*models.Payment, error)
	ListPending(ctx context.Context) ([]models.Payment, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type paymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Client) PaymentRepository {
	return &paymentRepository{
		collection: config.GetCollection(db, "payments"),
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return storeErr(err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, decodeErr(err)
	}
	return &payment, nil
}

func (r *paymentRepository) Resolve(ctx context.Context, id, status string, resolvedBy int64, reason string) (*models.Payment, error) {
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

	var payment models.Payment
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Either unknown id or already resolved; a second lookup
			// tells retried admin actions which one it was.
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
	return &payment, nil
}

func (r *paymentRepository) ListPending(ctx context.Context) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, decodeErr(err)
	}
	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

func (r *paymentRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}
