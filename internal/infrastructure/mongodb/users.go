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

// UserRepo stores users in bp-users.
type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) (*UserRepo, error) {
	coll := db.Collection(UsersCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "shortname", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error().Err(err).Str("collection", UsersCollection).Msg("failed to create indexes")
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &UserRepo{coll: coll}, nil
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	defer observe(UsersCollection, "insert")()
	_, err := r.coll.InsertOne(ctx, u)
	return duplicate(err, "user")
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": userID})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) GetByShortname(ctx context.Context, shortname string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"shortname": shortname})
}

// Update applies the non-nil fields of upd and returns the updated user.
func (r *UserRepo) Update(ctx context.Context, userID string, upd domain.UserUpdate) (*domain.User, error) {
	defer observe(UsersCollection, "update")()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.HasVerifiedEmail != nil {
		set["hasVerifiedEmail"] = *upd.HasVerifiedEmail
	}
	if upd.Shortname != nil {
		set["shortname"] = *upd.Shortname
	}
	if upd.PreferredName != nil {
		set["preferredName"] = *upd.PreferredName
	}

	res := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Err(); err != nil {
		return nil, duplicate(notFound(err, "user"), "shortname")
	}
	var u domain.User
	if err := res.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddWordpressInstanceURL records a linked WordPress instance once.
func (r *UserRepo) AddWordpressInstanceURL(ctx context.Context, userID, instanceURL string) error {
	defer observe(UsersCollection, "update")()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"wordpressInstanceUrls": instanceURL},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	defer observe(UsersCollection, "find")()
	var u domain.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}
