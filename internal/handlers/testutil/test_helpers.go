package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/access"
	"github.com/charlesng35/roadboard/internal/api"
	"github.com/charlesng35/roadboard/internal/app"
	iauth "github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/auth/providers"
	sharedtestutil "github.com/charlesng35/roadboard/internal/database/testutil"
	"github.com/charlesng35/roadboard/internal/embed"
	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/queue"
	"github.com/charlesng35/roadboard/internal/realtime"
	"github.com/charlesng35/roadboard/internal/services"
	"github.com/charlesng35/roadboard/internal/store"
	"github.com/charlesng35/roadboard/pkg/crypto"
	"github.com/charlesng35/roadboard/pkg/response"
)

const jwtSecret = "test-suite-super-secret-key-32-bytes!!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Services *services.Services
	Hub      *realtime.Hub
	Config   *app.Config
}

type envOptions struct {
	provider  providers.Provider
	rateStore middleware.RateStore
	configure func(*app.Config)
}

// Option customises NewEnv.
type Option func(*envOptions)

// WithProvider enables external sign-in through provider.
func WithProvider(provider providers.Provider) Option {
	return func(o *envOptions) { o.provider = provider }
}

// WithRateStore enables rate limiting backed by store.
func WithRateStore(store middleware.RateStore) Option {
	return func(o *envOptions) { o.rateStore = store }
}

// WithConfig adjusts the configuration before the router is built.
func WithConfig(fn func(*app.Config)) Option {
	return func(o *envOptions) { o.configure = fn }
}

// NewEnv provisions a fresh handler test environment with migrations applied
// and dev login enabled.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var options envOptions
	for _, opt := range opts {
		opt(&options)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Server: app.ServerConfig{Environment: "test"},
		Auth: app.AuthConfig{
			JWT:      app.JWTSettings{Secret: jwtSecret, Issuer: "test-suite", TTL: time.Hour},
			DevLogin: app.DevLoginSettings{Enabled: true},
		},
		Embed: app.EmbedConfig{VoteRateLimit: app.RateLimitConfig{Requests: 3, Window: time.Minute}},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	if options.configure != nil {
		options.configure(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	stores, err := store.New(db)
	require.NoError(t, err)
	checker, err := access.NewChecker(stores.Roadmaps, stores.Features)
	require.NoError(t, err)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	jobs := queue.NewInline(queue.NewMux(queue.Handlers{}), queue.WithoutDelays())
	t.Cleanup(func() { _ = jobs.Close() })

	svc, err := services.NewServices(stores, checker, hub, jobs)
	require.NoError(t, err)

	states, err := iauth.NewStateCodec(crypto.DeriveKey("test-state"), time.Minute, nil)
	require.NoError(t, err)
	login, err := iauth.NewLoginManager(options.provider, states, jwtSvc, svc.Users)
	require.NoError(t, err)

	renderer, err := embed.NewRenderer()
	require.NoError(t, err)

	router, err := api.NewRouter(api.Options{
		DB:        db,
		Config:    cfg,
		Services:  svc,
		JWT:       jwtSvc,
		Login:     login,
		Hub:       hub,
		Renderer:  renderer,
		RateStore: options.rateStore,
		Jobs:      jobs,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Services: svc,
		Hub:      hub,
		Config:   cfg,
	}
}

// Session is a signed-in user and its bearer token.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login signs in through the dev login endpoint, provisioning the user on first use.
func (e *Env) Login(email, name string) Session {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/dev/login", map[string]string{"email": email, "name": name}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var session Session
	DecodeInto(e.T, resp.Data, &session)
	require.NotEmpty(e.T, session.Token)
	require.NotEmpty(e.T, session.User.ID)
	return session
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Cookie returns the named cookie set on the response, if any.
func Cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
