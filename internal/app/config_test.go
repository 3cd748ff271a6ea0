package app

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/auth/providers"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "development", cfg.Server.Environment)
	require.False(t, cfg.Server.IsProduction())
	require.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 720*time.Hour, cfg.Auth.JWT.TTL)
	require.False(t, cfg.Auth.DevLogin.Enabled)
	require.Equal(t, "https://accounts.google.com", cfg.Auth.Google.Issuer)
	require.Equal(t, 30, cfg.Embed.VoteRateLimit.Requests)
	require.Zero(t, cfg.Maintenance.PurgeRetention)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ROADBOARD_SERVER_PORT", "7070")
	t.Setenv("ROADBOARD_AUTH_DEV_LOGIN_ENABLED", "true")
	t.Setenv("ROADBOARD_MAINTENANCE_PURGE_RETENTION", "24h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.True(t, cfg.Auth.DevLogin.Enabled)
	require.Equal(t, 24*time.Hour, cfg.Maintenance.PurgeRetention)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Server.IsProduction())
	require.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	require.Equal(t, 50, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 48*time.Hour, cfg.Auth.JWT.TTL)
	require.True(t, cfg.Auth.Google.Enabled)
	require.Equal(t, "google-client", cfg.Auth.Google.ClientID)
	require.True(t, cfg.Auth.DevLogin.Enabled)
	require.True(t, cfg.Auth.Cookie.Secure)

	require.True(t, cfg.Alerting.Slack.Enabled)
	require.Equal(t, "#alerts", cfg.Alerting.Slack.CriticalChannel)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "ops@example.com", cfg.Email.SMTP.Receiver)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, []string{"https://blog.example.com"}, cfg.Embed.FrameAncestors)
	require.Equal(t, 720*time.Hour, cfg.Maintenance.PurgeRetention)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
		Google: GoogleSettings{
			ClientID:     " client ",
			ClientSecret: "shh",
			RedirectURL:  "https://app.example.com/api/auth/google/callback",
		},
		Cookie: CookieSettings{Domain: "example.com", Secure: true, SameSite: "strict"},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:     "secret",
		Issuer:     "issuer",
		SessionTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())

	require.Equal(t, auth.CookieConfig{
		Domain:   "example.com",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}, cfg.CookieConfig())

	google := cfg.GoogleProviderConfig()
	require.Equal(t, "client", google.ClientID)
	require.Equal(t, providers.GoogleIssuer, google.Issuer)
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig
	require.Equal(t, auth.DefaultSessionTTL, cfg.JWTServiceConfig().SessionTTL)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieConfig().SameSite)
}

func TestEmailAndAlertingAdapters(t *testing.T) {
	email := EmailConfig{
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			From:     "no-reply@example.com",
			Receiver: "ops@example.com",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}

	settings := email.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "ops@example.com", settings.Receiver)
	require.Equal(t, 10*time.Second, settings.Timeout)

	alerts := AlertingConfig{Slack: SlackConfig{Enabled: true, Token: "t", CriticalChannel: "#c"}}.SlackConfig(" Production ")
	require.True(t, alerts.Enabled)
	require.Equal(t, "production", alerts.Environment)
	require.Equal(t, "#c", alerts.CriticalChannel)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "PostgreSQL",
		Postgres: DBAuthConfig{Host: "db", Port: 5432, Database: "rb", Username: "u", Password: "p"},
	}.ConnectionConfig()
	require.Equal(t, "postgres", cfg.Driver)
	require.Equal(t, "db", cfg.Host)
	require.Equal(t, "rb", cfg.Name)

	cfg = DatabaseConfig{Driver: "mariadb", MySQL: DBAuthConfig{Host: "mysql", Port: 3306}}.ConnectionConfig()
	require.Equal(t, "mysql", cfg.Driver)
	require.Equal(t, 3306, cfg.Port)

	cfg = DatabaseConfig{Path: "./data/x.sqlite"}.ConnectionConfig()
	require.Equal(t, "sqlite", cfg.Driver)
	require.Empty(t, cfg.Host)
}

func TestRedisAdapters(t *testing.T) {
	cache := CacheConfig{Redis: RedisCacheConfig{Address: " redis:6379 ", DB: 1, TLS: true, Timeout: time.Second}}

	client := cache.RedisClientConfig()
	require.Equal(t, "redis:6379", client.Address)
	require.Equal(t, 1, client.DB)

	opt := cache.AsynqRedisOpt()
	require.Equal(t, "redis:6379", opt.Addr)
	require.Equal(t, time.Second, opt.ReadTimeout)
	require.NotNil(t, opt.TLSConfig)
}
