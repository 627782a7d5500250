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

// APIKeyRepo stores hashed API keys in bp-api-keys.
type APIKeyRepo struct {
	coll *mongo.Collection
}

func NewAPIKeyRepo(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) (*APIKeyRepo, error) {
	coll := db.Collection(APIKeysCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "publicId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error().Err(err).Str("collection", APIKeysCollection).Msg("failed to create indexes")
		return nil, fmt.Errorf("create api key indexes: %w", err)
	}

	return &APIKeyRepo{coll: coll}, nil
}

func (r *APIKeyRepo) Put(ctx context.Context, k *domain.APIKey) error {
	defer observe(APIKeysCollection, "insert")()
	_, err := r.coll.InsertOne(ctx, k)
	return duplicate(err, "api key")
}

func (r *APIKeyRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.APIKey, error) {
	defer observe(APIKeysCollection, "find")()
	var k domain.APIKey
	if err := r.coll.FindOne(ctx, bson.M{"publicId": publicID}).Decode(&k); err != nil {
		return nil, notFound(err, "api key")
	}
	return &k, nil
}

// ListByUser returns the user's keys, newest first.
func (r *APIKeyRepo) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	defer observe(APIKeysCollection, "find")()
	cur, err := r.coll.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	keys := []domain.APIKey{}
	if err := cur.All(ctx, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Revoke sets revokedAt on every non-revoked key of the user with the given
// public id and returns how many were revoked.
func (r *APIKeyRepo) Revoke(ctx context.Context, userID, publicID string, at time.Time) (int64, error) {
	return r.revoke(ctx, bson.M{"userId": userID, "publicId": publicID, "revokedAt": nil}, at)
}

// RevokeAllByUser revokes every active key of the user.
func (r *APIKeyRepo) RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.revoke(ctx, bson.M{"userId": userID, "revokedAt": nil}, at)
}

func (r *APIKeyRepo) revoke(ctx context.Context, filter bson.M, at time.Time) (int64, error) {
	defer observe(APIKeysCollection, "update")()
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"revokedAt": at}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *APIKeyRepo) UpdateDisplayName(ctx context.Context, userID, publicID, displayName string) error {
	defer observe(APIKeysCollection, "update")()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "publicId": publicID},
		bson.M{"$set": bson.M{"displayName": displayName}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("api key not found: %w", domain.ErrNotFound)
	}
	return nil
}

// RecordUse atomically bumps the use counter and stamps the last use.
func (r *APIKeyRepo) RecordUse(ctx context.Context, keyID string, at time.Time, origin string) error {
	defer observe(APIKeysCollection, "update")()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": keyID},
		bson.M{
			"$inc": bson.M{"useCount": 1},
			"$set": bson.M{"lastUsedAt": at, "lastUsedOrigin": origin},
		},
	)
	return err
}
