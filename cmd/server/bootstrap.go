package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/access"
	"github.com/charlesng35/roadboard/internal/alerting"
	"github.com/charlesng35/roadboard/internal/api"
	"github.com/charlesng35/roadboard/internal/app"
	"github.com/charlesng35/roadboard/internal/app/maintenance"
	iauth "github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/auth/providers"
	"github.com/charlesng35/roadboard/internal/cache"
	"github.com/charlesng35/roadboard/internal/database"
	"github.com/charlesng35/roadboard/internal/embed"
	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/monitoring"
	"github.com/charlesng35/roadboard/internal/monitoring/checks"
	"github.com/charlesng35/roadboard/internal/queue"
	"github.com/charlesng35/roadboard/internal/realtime"
	"github.com/charlesng35/roadboard/internal/services"
	"github.com/charlesng35/roadboard/internal/store"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Jobs      queue.Enqueuer
	Worker    *queue.Worker
	Hub       *realtime.Hub
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, optional Redis, job queue,
// services and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to in-process rate limiting and jobs", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	handlers, err := jobHandlers(cfg)
	if err != nil {
		return nil, err
	}
	mux := queue.NewMux(handlers)
	if stack.Redis != nil {
		opt := cfg.Cache.AsynqRedisOpt()
		stack.Jobs = queue.NewClient(opt)
		stack.Worker = queue.NewWorker(opt, mux, queue.WorkerConfig{
			Concurrency:     cfg.Queue.Concurrency,
			ShutdownTimeout: cfg.Queue.ShutdownTimeout,
		})
		if err := stack.Worker.Start(); err != nil {
			return nil, err
		}
	} else {
		stack.Jobs = queue.NewInline(mux)
	}

	stores, err := store.New(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise stores: %w", err)
	}
	checker, err := access.NewChecker(stores.Roadmaps, stores.Features)
	if err != nil {
		return nil, fmt.Errorf("initialise access checker: %w", err)
	}

	stack.Hub = realtime.NewHub(cfg.Server.AllowedOrigins...)

	svc, err := services.NewServices(stores, checker, stack.Hub, stack.Jobs)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	login, err := initialiseLogin(ctx, cfg, jwtSvc, svc.Users)
	if err != nil {
		return nil, err
	}

	renderer, err := embed.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("initialise embed renderer: %w", err)
	}

	if stack.Redis != nil {
		stack.RateStore = middleware.NewCacheRateStore(stack.Redis)
	} else {
		stack.RateStore = middleware.NewMemoryRateStore()
	}

	stack.Router, err = api.NewRouter(api.Options{
		DB:        stack.DB,
		Config:    cfg,
		Services:  svc,
		JWT:       jwtSvc,
		Login:     login,
		Hub:       stack.Hub,
		Renderer:  renderer,
		RateStore: stack.RateStore,
		Jobs:      stack.Jobs,
		Health:    healthProbes(cfg, stack),
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(stores.Features, stores.Roadmaps, cfg.Maintenance.PurgeRetention,
		maintenance.WithSchedule(cfg.Maintenance.PurgeSchedule))
	if stack.Cleaner.Enabled() {
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	success = true
	return stack, nil
}

func healthProbes(cfg *app.Config, stack *runtimeStack) *monitoring.HealthManager {
	var redis checks.RedisPinger
	if stack.Redis != nil {
		redis = stack.Redis
	}
	return monitoring.NewHealthManager(
		checks.Database(stack.DB, 0),
		checks.Redis(redis, cfg.Cache.Redis.Enabled, cfg.Cache.Redis.Timeout),
	)
}

func jobHandlers(cfg *app.Config) (queue.Handlers, error) {
	var handlers queue.Handlers

	if cfg.Email.SMTP.Enabled {
		mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return handlers, fmt.Errorf("initialise smtp mailer: %w", err)
		}
		handlers.Mailer = mailer
	}

	notifier, err := alerting.NewSlackNotifier(cfg.Alerting.SlackConfig(cfg.Server.Environment))
	if err != nil {
		return handlers, fmt.Errorf("initialise slack notifier: %w", err)
	}
	handlers.Notifier = notifier
	return handlers, nil
}

func initialiseLogin(ctx context.Context, cfg *app.Config, jwtSvc *iauth.JWTService, users iauth.Provisioner) (*iauth.LoginManager, error) {
	stateKey, err := cfg.Auth.StateKeyBytes()
	if err != nil {
		return nil, fmt.Errorf("decode login state key: %w", err)
	}
	states, err := iauth.NewStateCodec(stateKey, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("initialise login state: %w", err)
	}

	var provider providers.Provider
	if cfg.Auth.Google.Enabled {
		provider, err = providers.NewGoogle(ctx, cfg.Auth.GoogleProviderConfig(), providers.GoogleOptions{})
		if err != nil {
			return nil, fmt.Errorf("initialise google sign-in: %w", err)
		}
	}

	return iauth.NewLoginManager(provider, states, jwtSvc, users)
}

// Shutdown gracefully stops background jobs and releases resources in
// reverse start order.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil && s.Cleaner.Enabled() {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs did not stop in time")
		}
	}

	if s.Hub != nil {
		s.Hub.Close()
	}

	var errs error
	if closer, ok := s.RateStore.(*middleware.MemoryRateStore); ok {
		errs = multierr.Append(errs, closer.Close())
	}
	if s.Worker != nil {
		s.Worker.Shutdown()
	}
	switch jobs := s.Jobs.(type) {
	case *queue.Client:
		errs = multierr.Append(errs, jobs.Close())
	case *queue.Inline:
		errs = multierr.Append(errs, jobs.Close())
	}
	if s.Redis != nil {
		errs = multierr.Append(errs, s.Redis.Close())
	}
	if errs != nil {
		log.Warn("runtime shutdown", zap.Error(errs))
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
