package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/blockprotocol/hub-api/internal/domain"
)

// VerificationCodeRepo stores emailed codes in bp-verification-codes.
type VerificationCodeRepo struct {
	coll *mongo.Collection
}

func NewVerificationCodeRepo(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) (*VerificationCodeRepo, error) {
	coll := db.Collection(VerificationCodesCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "variant", Value: 1}, {Key: "createdAt", Value: 1}}},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(domain.VerificationCodePruneAge / time.Second)),
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error().Err(err).Str("collection", VerificationCodesCollection).Msg("failed to create indexes")
		return nil, fmt.Errorf("create verification code indexes: %w", err)
	}

	return &VerificationCodeRepo{coll: coll}, nil
}

func (r *VerificationCodeRepo) Put(ctx context.Context, c *domain.VerificationCode) error {
	defer observe(VerificationCodesCollection, "insert")()
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *VerificationCodeRepo) Get(ctx context.Context, codeID string) (*domain.VerificationCode, error) {
	defer observe(VerificationCodesCollection, "find")()
	var c domain.VerificationCode
	if err := r.coll.FindOne(ctx, bson.M{"_id": codeID}).Decode(&c); err != nil {
		return nil, notFound(err, "verification code")
	}
	return &c, nil
}

// IncrementAttempts atomically records a failed comparison. The counter
// never moves past the attempt limit.
func (r *VerificationCodeRepo) IncrementAttempts(ctx context.Context, codeID string) error {
	defer observe(VerificationCodesCollection, "update")()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": codeID, "numberOfAttempts": bson.M{"$lt": domain.VerificationCodeMaxAttempts}},
		bson.M{"$inc": bson.M{"numberOfAttempts": 1}},
	)
	return err
}

// MarkUsed flips used to true. Only one caller can win; the others get
// ErrConflict.
func (r *VerificationCodeRepo) MarkUsed(ctx context.Context, codeID string) error {
	defer observe(VerificationCodesCollection, "update")()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": codeID, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("verification code already used: %w", domain.ErrConflict)
	}
	return nil
}

// ListSince returns the user's codes of a variant created after since,
// oldest first.
func (r *VerificationCodeRepo) ListSince(ctx context.Context, userID string, variant domain.VerificationCodeVariant, since time.Time) ([]domain.VerificationCode, error) {
	defer observe(VerificationCodesCollection, "find")()
	cur, err := r.coll.Find(ctx,
		bson.M{
			"userId":    userID,
			"variant":   variant,
			"createdAt": bson.M{"$gt": since},
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var codes []domain.VerificationCode
	if err := cur.All(ctx, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}
