package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/blockprotocol/hub-api/internal/config"
	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/infrastructure/metrics"
)

// Collection names.
const (
	UsersCollection             = "bp-users"
	SessionsCollection          = "bp-sessions"
	VerificationCodesCollection = "bp-verification-codes"
	APIKeysCollection           = "bp-api-keys"
	EntityTypesCollection       = "bp-entity-types"
	PropertyTypesCollection     = "bp-property-types"
)

// Connect opens the process-wide client and pings the primary. The connect
// timeout bounds both server selection and the initial ping.
func Connect(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(cfg.MongoConnectTimeout).
		SetServerSelectionTimeout(cfg.MongoConnectTimeout).
		SetAppName("hub-api")

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongo")
	return client, client.Database(cfg.MongoDatabase), nil
}

// notFound maps the driver's no-documents error onto the domain sentinel.
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	}
	return err
}

// duplicate maps unique-index violations onto the domain conflict sentinel.
func duplicate(err error, what string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s already exists: %w", what, domain.ErrConflict)
	}
	return err
}

func observe(collection, operation string) func() {
	start := time.Now()
	return func() {
		metrics.StoreOperationDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
	}
}
