package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/models"
)

// ErrCodeTaken is returned by Create when the generated referral code
// collides with an existing account; the caller retries with a fresh
// code.
var ErrCodeTaken = errors.New("referral code taken")

// UserRepository is the persistence contract for accounts. ApplyDelta is
// the only way financial and counter fields change; implementations must
// make it atomic with respect to concurrent callers on the same account.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ApplyDelta(ctx context.Context, id int64, delta models.LedgerDelta) (*models.User, error)
	SetStatus(ctx context.Context, id int64, status, reason string) error
	TopReferrers(ctx context.Context, limit int64) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) UserRepository {
	return &userRepository{
		collection: config.GetCollection(db, "users"),
	}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, decodeErr(err)
	}
	return &user, nil
}

func (r *userRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, decodeErr(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The id and referralCode indexes are both unique; tell the
			// caller which one collided so only code collisions retry.
			if strings.Contains(err.Error(), "referralCode") {
				return ErrCodeTaken
			}
			return models.ErrAlreadyExists
		}
		return storeErr(err)
	}
	return nil
}

// ApplyDelta applies the delta in a single guarded update. For every
// field the delta decreases, the filter requires enough headroom, so a
// concurrent mutation can never drive a balance or counter negative: the
// update matches nothing and the caller gets ErrInvariantViolation.
func (r *userRepository) ApplyDelta(ctx context.Context, id int64, delta models.LedgerDelta) (*models.User, error) {
	filter := bson.M{"_id": id}
	guard := func(field string, d int64) {
		if d < 0 {
			filter[field] = bson.M{"$gte": -d}
		}
	}
	guard("balance", delta.Balance)
	guard("totalEarned", delta.TotalEarned)
	guard("totalWithdrawn", delta.TotalWithdrawn)
	guard("paidReferrals", delta.PaidReferrals)
	guard("unpaidReferrals", delta.UnpaidReferrals)
	guard("totalReferrals", delta.TotalReferrals)

	update := bson.M{
		"$inc": bson.M{
			"balance":         delta.Balance,
			"totalEarned":     delta.TotalEarned,
			"totalWithdrawn":  delta.TotalWithdrawn,
			"paidReferrals":   delta.PaidReferrals,
			"unpaidReferrals": delta.UnpaidReferrals,
			"totalReferrals":  delta.TotalReferrals,
		},
		"$set": bson.M{"lastSeen": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// No match: either the account does not exist or a guard
			// failed. Distinguish the two for the caller.
			count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if countErr != nil {
				return nil, storeErr(countErr)
			}
			if count == 0 {
				return nil, models.ErrNotFound
			}
			return nil, models.ErrInvariantViolation
		}
		return nil, decodeErr(err)
	}
	return &user, nil
}

func (r *userRepository) SetStatus(ctx context.Context, id int64, status, reason string) error {
	update := bson.M{"$set": bson.M{"status": status}}
	if status == models.UserStatusBlocked {
		update["$set"].(bson.M)["blockReason"] = reason
		update["$set"].(bson.M)["blockedAt"] = time.Now()
	} else {
		update["$unset"] = bson.M{"blockReason": "", "blockedAt": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *userRepository) TopReferrers(ctx context.Context, limit int64) ([]models.User, error) {
	// paidReferrals descending, ties broken by registration order
	opts := options.Find().
		SetSort(bson.D{{Key: "paidReferrals", Value: -1}, {Key: "registrationDate", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"paidReferrals": bson.M{"$gte": 1}}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, decodeErr(err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

// storeErr wraps transient driver failures as retryable.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}

// decodeErr separates records that fail to unmarshal into their fixed
// shape from plain connectivity failures.
func decodeErr(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return storeErr(err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return storeErr(err)
	}
	return fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
}
