package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/blockprotocol/hub-api/internal/domain"
)

// TypeRepo stores the versions of one ontology kind. Each version is its own
// document; (userId, baseUrl, version) is unique.
type TypeRepo[S any] struct {
	coll *mongo.Collection
	name string
}

func NewTypeRepo[S any](ctx context.Context, logger *zerolog.Logger, db *mongo.Database, collection string) (*TypeRepo[S], error) {
	coll := db.Collection(collection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "recordId.baseUrl", Value: 1},
				{Key: "recordId.version", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "recordId.baseUrl", Value: 1}, {Key: "recordId.version", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error().Err(err).Str("collection", collection).Msg("failed to create indexes")
		return nil, fmt.Errorf("create %s indexes: %w", collection, err)
	}

	return &TypeRepo[S]{coll: coll, name: collection}, nil
}

// Insert stores a new version. A version that already exists for the base
// URL yields ErrConflict.
func (r *TypeRepo[S]) Insert(ctx context.Context, rec *domain.TypeRecord[S]) error {
	defer observe(r.name, "insert")()
	_, err := r.coll.InsertOne(ctx, rec)
	return duplicate(err, "type version")
}

func (r *TypeRepo[S]) GetVersion(ctx context.Context, baseURL string, version int) (*domain.TypeRecord[S], error) {
	defer observe(r.name, "find")()
	var rec domain.TypeRecord[S]
	err := r.coll.FindOne(ctx, bson.M{"recordId.baseUrl": baseURL, "recordId.version": version}).Decode(&rec)
	if err != nil {
		return nil, notFound(err, "type")
	}
	return &rec, nil
}

// GetLatest returns the highest version stored for baseURL.
func (r *TypeRepo[S]) GetLatest(ctx context.Context, baseURL string) (*domain.TypeRecord[S], error) {
	defer observe(r.name, "find")()
	var rec domain.TypeRecord[S]
	err := r.coll.FindOne(ctx,
		bson.M{"recordId.baseUrl": baseURL},
		options.FindOne().SetSort(bson.D{{Key: "recordId.version", Value: -1}}),
	).Decode(&rec)
	if err != nil {
		return nil, notFound(err, "type")
	}
	return &rec, nil
}

func (r *TypeRepo[S]) List(ctx context.Context, filter domain.TypeFilter) ([]domain.TypeRecord[S], error) {
	defer observe(r.name, "aggregate")()
	cur, err := r.coll.Aggregate(ctx, queryPipeline(filter))
	if err != nil {
		return nil, err
	}
	recs := []domain.TypeRecord[S]{}
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// queryPipeline narrows by author, then for latestOnly keeps the
// max-version document of each base URL.
func queryPipeline(filter domain.TypeFilter) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if filter.UserID != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "userId", Value: filter.UserID}}}})
	}
	if filter.LatestOnly {
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{
				{Key: "recordId.baseUrl", Value: 1},
				{Key: "recordId.version", Value: -1},
			}}},
			bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$recordId.baseUrl"},
				{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
			}}},
			bson.D{{Key: "$replaceWith", Value: "$latest"}},
		)
	}
	return append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "recordId.baseUrl", Value: 1},
		{Key: "recordId.version", Value: 1},
	}}})
}
