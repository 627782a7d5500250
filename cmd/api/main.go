package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/blockprotocol/hub-api/internal/config"
	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/blockprotocol/hub-api/internal/infrastructure/jwt"
	"github.com/blockprotocol/hub-api/internal/infrastructure/logger"
	"github.com/blockprotocol/hub-api/internal/infrastructure/mongodb"
	s3infra "github.com/blockprotocol/hub-api/internal/infrastructure/s3"
	"github.com/blockprotocol/hub-api/internal/infrastructure/smtp"
	"github.com/blockprotocol/hub-api/internal/infrastructure/sns"
	transporthttp "github.com/blockprotocol/hub-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &lg); err != nil {
		lg.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zerolog.Logger) error {
	// S3 and SNS use the AWS config regardless of the store backend.
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	deps := &transporthttp.Deps{
		BlockStore:  s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.BlocksBucket),
		Mailer:      smtp.NewMailer(cfg),
		Publisher:   sns.NewPublisher(awsCfg, cfg),
		JWTProvider: jwtProvider,
		Logger:      lg,
	}

	switch cfg.StoreBackend {
	case config.StoreDynamo:
		client := dynamo.NewClient(awsCfg, cfg)
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, lg)
		deps.UserRepo = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
		deps.SessionRepo = dynamo.NewSessionRepo(client, cfg.DynamoTables.Sessions)
		deps.VerificationRepo = dynamo.NewVerificationCodeRepo(client, cfg.DynamoTables.VerificationCodes)
		deps.APIKeyRepo = dynamo.NewAPIKeyRepo(client, cfg.DynamoTables.APIKeys)
		deps.EntityTypeRepo = dynamo.NewTypeRepo[domain.EntityType](client, cfg.DynamoTables.EntityTypes)
		deps.PropertyTypeRepo = dynamo.NewTypeRepo[domain.PropertyType](client, cfg.DynamoTables.PropertyTypes)
	default:
		client, db, err := mongodb.Connect(ctx, cfg, lg)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				lg.Error().Err(err).Msg("mongo disconnect")
			}
		}()
		if err := wireMongo(ctx, lg, db, deps); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Str("store", cfg.StoreBackend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	lg.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	lg.Info().Msg("server stopped")
	return nil
}

// wireMongo creates the Mongo repositories, ensuring their indexes.
func wireMongo(ctx context.Context, lg *zerolog.Logger, db *mongo.Database, deps *transporthttp.Deps) error {
	var err error
	if deps.UserRepo, err = mongodb.NewUserRepo(ctx, lg, db); err != nil {
		return err
	}
	if deps.SessionRepo, err = mongodb.NewSessionRepo(ctx, lg, db); err != nil {
		return err
	}
	if deps.VerificationRepo, err = mongodb.NewVerificationCodeRepo(ctx, lg, db); err != nil {
		return err
	}
	if deps.APIKeyRepo, err = mongodb.NewAPIKeyRepo(ctx, lg, db); err != nil {
		return err
	}
	if deps.EntityTypeRepo, err = mongodb.NewTypeRepo[domain.EntityType](ctx, lg, db, mongodb.EntityTypesCollection); err != nil {
		return err
	}
	if deps.PropertyTypeRepo, err = mongodb.NewTypeRepo[domain.PropertyType](ctx, lg, db, mongodb.PropertyTypesCollection); err != nil {
		return err
	}
	return nil
}
