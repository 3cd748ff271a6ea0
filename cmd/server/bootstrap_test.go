package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/roadboard/internal/app"
	"github.com/charlesng35/roadboard/internal/database"
	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/queue"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()

	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Server.Environment = "test"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = database.MemoryDSN(t.Name())
	cfg.Cache.Redis.Enabled = false
	cfg.Auth.Google.Enabled = false
	cfg.Maintenance.PurgeRetention = time.Hour

	_, err = app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	return cfg
}

func TestBootstrapRuntimeWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.NotNil(t, stack.DB)
	require.Nil(t, stack.Redis)
	require.Nil(t, stack.Worker)
	require.IsType(t, &queue.Inline{}, stack.Jobs)
	require.IsType(t, &middleware.MemoryRateStore{}, stack.RateStore)
	require.True(t, stack.Cleaner.Enabled())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	stack.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBootstrapRuntimeRejectsBadMailer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Email.SMTP.Enabled = true
	cfg.Email.SMTP.Host = ""

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "smtp")
}

func TestEnsureSecretsPresent(t *testing.T) {
	require.Error(t, ensureSecretsPresent(nil))

	cfg := &app.Config{}
	cfg.Auth.JWT.Secret = "   "
	require.Error(t, ensureSecretsPresent(cfg))

	cfg.Auth.JWT.Secret = " short-secret "
	require.NoError(t, ensureSecretsPresent(cfg))
	require.Equal(t, "short-secret", cfg.Auth.JWT.Secret)

	cfg.Server.Environment = "production"
	require.Error(t, ensureSecretsPresent(cfg))

	cfg.Auth.JWT.Secret = "0123456789abcdef0123456789abcdef"
	require.NoError(t, ensureSecretsPresent(cfg))

	cfg.Auth.Google.Enabled = true
	require.Error(t, ensureSecretsPresent(cfg))
	cfg.Auth.Google.ClientSecret = "google-secret"
	require.NoError(t, ensureSecretsPresent(cfg))
}

func TestLoadApplicationConfigPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9191\n"), 0o600))

	cfg, err := loadApplicationConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	cfg, err = loadApplicationConfig(file)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	_, err = loadApplicationConfig(filepath.Join(dir, "missing"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestLogSecurityAuditReportsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := &app.Config{
		Server: app.ServerConfig{Environment: "production"},
		Auth: app.AuthConfig{
			JWT:      app.JWTSettings{Secret: "0123456789abcdef0123456789abcdef0123456789abcdef", TTL: time.Hour},
			Cookie:   app.CookieSettings{Secure: true},
			DevLogin: app.DevLoginSettings{Enabled: true},
		},
	}

	logSecurityAudit(cfg, zap.New(core))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, zap.ErrorLevel, entry.Level)
	require.Equal(t, "dev_login", entry.ContextMap()["check"])
}
