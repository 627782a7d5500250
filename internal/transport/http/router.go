package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/blockprotocol/hub-api/internal/application/apikey"
	"github.com/blockprotocol/hub-api/internal/application/auth"
	"github.com/blockprotocol/hub-api/internal/application/block"
	"github.com/blockprotocol/hub-api/internal/application/ontology"
	"github.com/blockprotocol/hub-api/internal/application/session"
	"github.com/blockprotocol/hub-api/internal/application/user"
	"github.com/blockprotocol/hub-api/internal/config"
	"github.com/blockprotocol/hub-api/internal/domain"
	jwtinfra "github.com/blockprotocol/hub-api/internal/infrastructure/jwt"
	"github.com/blockprotocol/hub-api/internal/infrastructure/smtp"
	"github.com/blockprotocol/hub-api/internal/infrastructure/sns"
	"github.com/blockprotocol/hub-api/internal/transport/http/handler"
	appmiddleware "github.com/blockprotocol/hub-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	SessionRepo      SessionRepository
	VerificationRepo VerificationCodeRepository
	APIKeyRepo       APIKeyRepository
	EntityTypeRepo   TypeRepository[domain.EntityType]
	PropertyTypeRepo TypeRepository[domain.PropertyType]
	BlockStore       ObjectStore
	Mailer           smtp.Mailer
	Publisher        sns.EventPublisher
	JWTProvider      *jwtinfra.Provider
	Logger           *zerolog.Logger
}

// NewRouter builds and returns the application router. ctx bounds the
// background work started for the router, such as the rate limiter sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo: deps.SessionRepo,
		UserRepo:    deps.UserRepo,
		JWTProvider: deps.JWTProvider,
		MaxAge:      cfg.SessionMaxAge,
		Logger:      logger,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		CodeRepo:    deps.VerificationRepo,
		Sessions:    sessionSvc,
		Mailer:      deps.Mailer,
		FrontendURL: cfg.FrontendURL,
		Logger:      logger,
	})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo, Logger: logger})
	apiKeySvc := apikey.NewService(apikey.ServiceDeps{
		KeyRepo:  deps.APIKeyRepo,
		UserRepo: deps.UserRepo,
		Secret:   cfg.APIKeySecret,
		Logger:   logger,
	})
	entityTypeSvc := ontology.NewService[domain.EntityType](ontology.ServiceDeps[domain.EntityType]{
		TypeRepo:    deps.EntityTypeRepo,
		UserRepo:    deps.UserRepo,
		Publisher:   deps.Publisher,
		FrontendURL: cfg.FrontendURL,
		Kind:        domain.EntityTypeKind,
		Logger:      logger,
	})
	propertyTypeSvc := ontology.NewService[domain.PropertyType](ontology.ServiceDeps[domain.PropertyType]{
		TypeRepo:    deps.PropertyTypeRepo,
		UserRepo:    deps.UserRepo,
		Publisher:   deps.Publisher,
		FrontendURL: cfg.FrontendURL,
		Kind:        domain.PropertyTypeKind,
		Logger:      logger,
	})
	blockSvc := block.NewService(block.ServiceDeps{Store: deps.BlockStore, Logger: logger})

	cookie := handler.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.CookieSecure}
	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cookie)
	sessionH := handler.NewSessionHandler(sessionSvc, cookie)
	userH := handler.NewUserHandler(userSvc)
	apiKeyH := handler.NewAPIKeyHandler(apiKeySvc)
	entityTypeH := handler.NewTypeHandler(entityTypeSvc, "entityType", "entityTypes")
	propertyTypeH := handler.NewTypeHandler(propertyTypeSvc, "propertyType", "propertyTypes")
	blockH := handler.NewBlockHandler(blockSvc)

	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.SensitiveRateLimit), cfg.SensitiveRateBurst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.AccessLog(logger))
	r.Use(appmiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.APIKeyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(appmiddleware.Authenticate(apiKeySvc, sessionSvc, cfg.SessionCookieName))

		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health", healthH.Health)
		r.With(sensitiveRL.Limit).Post("/signup", authH.Signup)
		r.Post("/verify-email", authH.VerifyEmail)
		r.With(sensitiveRL.Limit).Post("/send-login-code", authH.SendLoginCode)
		r.Post("/login-with-login-code", authH.LoginWithLoginCode)
		r.With(sensitiveRL.Limit).Post("/link-wordpress", authH.LinkWordpress)
		r.Post("/verify-wordpress-link", authH.VerifyWordpressLink)
		r.Get("/is-shortname-taken", userH.IsShortnameTaken)
		r.Get("/users/{shortname}", userH.PublicProfile)

		r.Get("/blocks", blockH.List)
		r.Get("/blocks/{author}/{name}", blockH.Get)
		r.Get("/blocks/{author}/{name}/assets/*", blockH.Asset)

		mountTypes(r, domain.EntityTypeKind, entityTypeH)
		mountTypes(r, domain.PropertyTypeKind, propertyTypeH)

		// ── Any authenticated user ───────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireUser)

			r.Post("/logout", sessionH.Logout)
			r.Get("/me", userH.Me)
			r.Post("/complete-signup", userH.CompleteSignup)
		})

		// ── Signed-up users ──────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireSignedUp)

			r.Put("/me", userH.UpdateMe)
			r.Post("/me/generate-api-key", apiKeyH.Generate)
			r.Post("/me/revoke-api-key", apiKeyH.Revoke)
			r.Get("/me/api-keys", apiKeyH.List)
			r.Post("/me/update-api-key", apiKeyH.Update)
		})
	})

	return r
}

func mountTypes[S any](r chi.Router, kind domain.OntologyKind, h *handler.TypeHandler[S]) {
	r.Route("/types/"+string(kind), func(r chi.Router) {
		r.Get("/get", h.Get)
		r.Get("/query", h.Query)
		r.With(appmiddleware.RequireSignedUp).Post("/create", h.Create)
		r.With(appmiddleware.RequireSignedUp).Put("/update", h.Update)
	})
}
