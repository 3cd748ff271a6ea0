package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/app"
	iauth "github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/embed"
	"github.com/charlesng35/roadboard/internal/handlers"
	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/monitoring"
	"github.com/charlesng35/roadboard/internal/monitoring/checks"
	"github.com/charlesng35/roadboard/internal/queue"
	"github.com/charlesng35/roadboard/internal/realtime"
	"github.com/charlesng35/roadboard/internal/services"
)

// Options carries the long-lived components the HTTP layer is built from.
type Options struct {
	DB       *gorm.DB
	Config   *app.Config
	Services *services.Services
	JWT      *iauth.JWTService
	Login    *iauth.LoginManager
	Hub      *realtime.Hub
	Renderer *embed.Renderer
	// RateStore counts requests for the rate limiter; nil disables limiting.
	RateStore middleware.RateStore
	// Jobs receives critical error alerts; nil drops them after logging.
	Jobs queue.Enqueuer
	// Health holds the probes behind /health; nil probes the database only.
	Health *monitoring.HealthManager
}

func (o Options) validate() error {
	switch {
	case o.DB == nil:
		return errors.New("database handle must be provided")
	case o.Config == nil:
		return errors.New("config must be provided")
	case o.Services == nil:
		return errors.New("services must be provided")
	case o.JWT == nil:
		return errors.New("jwt service must be provided")
	case o.Login == nil:
		return errors.New("login manager must be provided")
	case o.Hub == nil:
		return errors.New("realtime hub must be provided")
	case o.Renderer == nil:
		return errors.New("embed renderer must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(opts Options) (*gin.Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cfg := opts.Config

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger("/health", cfg.Monitoring.Prometheus.Endpoint))
	r.Use(middleware.Metrics())
	r.Use(middleware.AlertCriticalErrors(opts.Jobs))
	r.Use(middleware.RateLimit(opts.RateStore, "server", cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	health := opts.Health
	if health == nil {
		health = monitoring.NewHealthManager(checks.Database(opts.DB, 0))
	}
	registerHealthRoutes(r, health, cfg)
	registerMetricsRoutes(r, cfg)

	// Public embed surfaces carry their own CORS and framing policy.
	embedHandler, err := handlers.NewEmbedHandler(opts.Services.Roadmaps, opts.Renderer)
	if err != nil {
		return nil, err
	}
	registerEmbedRoutes(r, embedHandler, cfg.Embed.FrameAncestors)

	api := r.Group("/api", middleware.SecurityHeaders(), middleware.CORS(cfg.Server.AllowedOrigins...))
	requireSession := middleware.Session(opts.JWT)

	authHandler, err := handlers.NewAuthHandler(opts.Login, opts.Services.Users, cfg.Auth.CookieConfig())
	if err != nil {
		return nil, err
	}
	registerAuthRoutes(api, authHandler, requireSession, cfg.Auth.DevLogin.Enabled)

	roadmapHandler, err := handlers.NewRoadmapHandler(opts.Services.Roadmaps, opts.Services.Features)
	if err != nil {
		return nil, err
	}
	eventsHandler, err := handlers.NewEventsHandler(opts.Services.Roadmaps, opts.Hub)
	if err != nil {
		return nil, err
	}
	registerRoadmapRoutes(api, roadmapHandler, eventsHandler, requireSession)

	featureHandler, err := handlers.NewFeatureHandler(opts.Services.Features, opts.Services.Votes, cfg.Auth.Cookie.Secure)
	if err != nil {
		return nil, err
	}
	voteLimit := middleware.RateLimit(opts.RateStore, "vote", cfg.Embed.VoteRateLimit.Requests, cfg.Embed.VoteRateLimit.Window)
	registerFeatureRoutes(api, featureHandler, requireSession, voteLimit)

	userHandler, err := handlers.NewUserHandler(opts.Services.Users)
	if err != nil {
		return nil, err
	}
	registerUserRoutes(api, userHandler, requireSession)

	// Preflights for API routes never match a registered OPTIONS route and
	// land here, so CORS must answer them before the fallbacks.
	cors := middleware.CORS(cfg.Server.AllowedOrigins...)
	r.NoRoute(cors, middleware.NotFoundHandler)
	r.NoMethod(cors, middleware.MethodNotAllowedHandler)

	return r, nil
}
