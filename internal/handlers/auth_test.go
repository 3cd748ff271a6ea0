package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/app"
	iauth "github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/auth/providers"
	"github.com/charlesng35/roadboard/internal/handlers/testutil"
	"github.com/charlesng35/roadboard/internal/models"
)

type stubProvider struct {
	identity *providers.Identity
}

func (p *stubProvider) Name() string { return "google" }

func (p *stubProvider) Begin(_ context.Context, req providers.BeginAuthRequest) (*providers.BeginAuthResponse, error) {
	return &providers.BeginAuthResponse{
		RedirectURL: "https://accounts.example/auth?state=" + url.QueryEscape(req.State),
		State:       req.State,
	}, nil
}

func (p *stubProvider) Callback(context.Context, providers.CallbackRequest) (*providers.Identity, error) {
	return p.identity, nil
}

func TestGoogleLoginDisabled(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/auth/google/login", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoogleLoginFlow(t *testing.T) {
	provider := &stubProvider{identity: &providers.Identity{
		Provider:    "google",
		Email:       "carol@example.com",
		DisplayName: "Carol",
	}}
	env := testutil.NewEnv(t, testutil.WithProvider(provider))

	w := env.Request(http.MethodGet, "/api/auth/google/login?redirect=/roadmaps", nil, "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "https://accounts.example/auth?state=")

	state := testutil.Cookie(w, iauth.StateCookieName)
	require.NotNil(t, state)
	require.True(t, state.HttpOnly)

	w = env.Request(http.MethodGet, "/api/auth/google/callback?code=abc&state="+url.QueryEscape(state.Value), nil, "", state)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/roadmaps", w.Header().Get("Location"))

	session := testutil.Cookie(w, iauth.SessionCookieName)
	require.NotNil(t, session)
	require.NotEmpty(t, session.Value)

	w = env.Request(http.MethodGet, "/api/auth/me", nil, "", session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &me)
	require.Equal(t, "carol@example.com", me.Email)
	require.Equal(t, "carol", me.Username)
}

func TestGoogleCallbackRejectsStateMismatch(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithProvider(&stubProvider{}))

	w := env.Request(http.MethodGet, "/api/auth/google/callback?code=abc&state=forged", nil, "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=sso_state", w.Header().Get("Location"))
	require.Nil(t, testutil.Cookie(w, iauth.SessionCookieName))
}

func TestMeAndLogout(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	alice := env.Login("alice@example.com", "Alice")
	w = env.Request(http.MethodGet, "/api/auth/me", nil, alice.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &me)
	require.Equal(t, alice.User.ID, me.ID)

	// Signing in again returns the same account.
	again := env.Login("alice@example.com", "Alice")
	require.Equal(t, alice.User.ID, again.User.ID)

	w = env.Request(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	expired := testutil.Cookie(w, iauth.SessionCookieName)
	require.NotNil(t, expired)
	require.Equal(t, -1, expired.MaxAge)
}

func TestLoginWithMixedCaseEmailReturnsSameUser(t *testing.T) {
	env := testutil.NewEnv(t)

	first := env.Login("Alice@Example.com", "Alice")
	require.Equal(t, "alice@example.com", first.User.Email)

	second := env.Login("Alice@Example.com", "Alice")
	require.Equal(t, first.User.ID, second.User.ID)

	third := env.Login("alice@EXAMPLE.com", "Alice")
	require.Equal(t, first.User.ID, third.User.ID)

	w := env.Request(http.MethodPatch, "/api/user/"+first.User.ID, map[string]any{"email": "Alice.L@Example.com"}, first.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, "alice.l@example.com", updated.Email)

	renamed := env.Login("Alice.L@Example.com", "Alice")
	require.Equal(t, first.User.ID, renamed.User.ID)
}

func TestDevLoginDisabledByDefaultConfig(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithConfig(func(cfg *app.Config) {
		cfg.Auth.DevLogin.Enabled = false
	}))

	w := env.Request(http.MethodPost, "/api/auth/dev/login", map[string]string{"email": "x@example.com"}, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
