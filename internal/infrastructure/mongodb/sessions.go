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

// SessionRepo stores login sessions in bp-sessions. Expired sessions are
// removed by a TTL index on expiresAt.
type SessionRepo struct {
	coll *mongo.Collection
}

func NewSessionRepo(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) (*SessionRepo, error) {
	coll := db.Collection(SessionsCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error().Err(err).Str("collection", SessionsCollection).Msg("failed to create indexes")
		return nil, fmt.Errorf("create session indexes: %w", err)
	}

	return &SessionRepo{coll: coll}, nil
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	defer observe(SessionsCollection, "insert")()
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	defer observe(SessionsCollection, "find")()
	var s domain.Session
	if err := r.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&s); err != nil {
		return nil, notFound(err, "session")
	}
	return &s, nil
}

// Disable ends a session; it can no longer authenticate requests.
func (r *SessionRepo) Disable(ctx context.Context, sessionID string) error {
	defer observe(SessionsCollection, "update")()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{"enable": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	return nil
}
