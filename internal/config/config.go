package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMongo  = "mongo"
	StoreDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// FrontendURL is the public origin type URLs are minted under.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"mongo"`

	MongoURI            string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase       string        `env:"MONGODB_DB_NAME" envDefault:"blockprotocol"`
	MongoConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"8s"`

	AWSRegion      string       `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string       `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string       `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string       `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables `envPrefix:"DYNAMO_TABLE_"`

	// BlocksBucket holds published blocks under blocks/<author>/<name>/.
	BlocksBucket string `env:"S3_BLOCKS_BUCKET" envDefault:"blockprotocol-blocks"`

	// TypeEventsTopicARN receives type-version events; empty disables them.
	TypeEventsTopicARN string `env:"SNS_TYPE_EVENTS_TOPIC_ARN"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionMaxAge     time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"bp_session"`
	CookieSecure      bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	APIKeySecret string `env:"API_KEY_SECRET"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"Block Protocol <noreply@blockprotocol.org>"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"` // CORS allowed origins

	// Per-IP token bucket applied to the public code-issuing endpoints.
	SensitiveRateLimit float64 `env:"SENSITIVE_RATE_LIMIT" envDefault:"5"`
	SensitiveRateBurst int     `env:"SENSITIVE_RATE_BURST" envDefault:"10"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string `env:"USERS" envDefault:"bp-users"`
	Sessions          string `env:"SESSIONS" envDefault:"bp-sessions"`
	VerificationCodes string `env:"VERIFICATION_CODES" envDefault:"bp-verification-codes"`
	APIKeys           string `env:"API_KEYS" envDefault:"bp-api-keys"`
	EntityTypes       string `env:"ENTITY_TYPES" envDefault:"bp-entity-types"`
	PropertyTypes     string `env:"PROPERTY_TYPES" envDefault:"bp-property-types"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreMongo, StoreDynamo:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMongo, StoreDynamo, c.StoreBackend))
	}
	if c.FrontendURL == "" {
		errs = append(errs, errors.New("FRONTEND_URL must not be empty"))
	}
	if c.IsProduction() {
		if c.APIKeySecret == "" {
			errs = append(errs, errors.New("missing API_KEY_SECRET environment variable"))
		}
		if c.SessionSecret == "" && c.JWTPrivateKeyPath == "" {
			errs = append(errs, errors.New("missing SESSION_SECRET or JWT_PRIVATE_KEY_PATH environment variable"))
		}
	}
	return errors.Join(errs...)
}
