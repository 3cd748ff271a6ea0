package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/auth/providers"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/services"
	"github.com/charlesng35/roadboard/pkg/crypto"
)

type fakeProvider struct {
	begin    providers.BeginAuthRequest
	callback providers.CallbackRequest
	identity *providers.Identity
	err      error
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) Begin(_ context.Context, req providers.BeginAuthRequest) (*providers.BeginAuthResponse, error) {
	p.begin = req
	return &providers.BeginAuthResponse{RedirectURL: "https://idp.example/auth?state=" + req.State, State: req.State}, nil
}

func (p *fakeProvider) Callback(_ context.Context, req providers.CallbackRequest) (*providers.Identity, error) {
	p.callback = req
	if p.err != nil {
		return nil, p.err
	}
	return p.identity, nil
}

type fakeProvisioner struct {
	identity services.Identity
	ref      string
}

func (f *fakeProvisioner) Provision(_ context.Context, identity services.Identity, ref string) (*models.User, bool, error) {
	f.identity = identity
	f.ref = ref
	user := &models.User{Name: identity.Name, Username: "alice", Email: identity.Email}
	user.ID = "user-1"
	return user, true, nil
}

func newLoginManager(t *testing.T, provider providers.Provider) (*LoginManager, *fakeProvisioner) {
	t.Helper()
	states, err := NewStateCodec(crypto.DeriveKey("secret"), time.Minute, nil)
	require.NoError(t, err)
	tokens, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)
	users := &fakeProvisioner{}
	m, err := NewLoginManager(provider, states, tokens, users)
	require.NoError(t, err)
	return m, users
}

func TestLoginRoundTrip(t *testing.T) {
	provider := &fakeProvider{identity: &providers.Identity{Email: "alice@example.com", DisplayName: "Alice"}}
	m, users := newLoginManager(t, provider)
	ctx := context.Background()

	redirect, state, err := m.Begin(ctx, "/roadmap/r1", "bob")
	require.NoError(t, err)
	require.Contains(t, redirect, "https://idp.example/auth")
	require.Equal(t, state, provider.begin.State)
	require.NotEmpty(t, provider.begin.Nonce)

	result, err := m.Complete(ctx, state, state, "code-1", "")
	require.NoError(t, err)
	require.Equal(t, "/roadmap/r1", result.ReturnURL)
	require.True(t, result.Created)
	require.Equal(t, "bob", users.ref)
	require.Equal(t, "Alice", users.identity.Name)

	require.Equal(t, "code-1", provider.callback.Code)
	require.Equal(t, provider.begin.Nonce, provider.callback.ExpectedNonce)
	require.True(t, VerifyPKCE(provider.callback.PKCEVerifier, provider.begin.PKCEChallenge))

	claims, err := m.Tokens().Validate(result.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestLoginCompleteRejectsMismatchedState(t *testing.T) {
	m, _ := newLoginManager(t, &fakeProvider{})
	ctx := context.Background()

	_, state, err := m.Begin(ctx, "", "")
	require.NoError(t, err)

	_, err = m.Complete(ctx, state, "other", "code", "")
	require.ErrorIs(t, err, ErrStateMismatch)
	_, err = m.Complete(ctx, "", "", "code", "")
	require.ErrorIs(t, err, ErrStateMismatch)
}

func TestLoginCompletePropagatesProviderErrors(t *testing.T) {
	provider := &fakeProvider{err: errors.New("access_denied")}
	m, _ := newLoginManager(t, provider)

	_, state, err := m.Begin(context.Background(), "/", "")
	require.NoError(t, err)
	_, err = m.Complete(context.Background(), state, state, "", "access_denied")
	require.Error(t, err)
}

func TestSignInRequiresEmail(t *testing.T) {
	m, _ := newLoginManager(t, nil)
	require.False(t, m.Enabled())

	_, err := m.SignIn(context.Background(), services.Identity{Name: "x"}, "", "dev")
	require.ErrorIs(t, err, ErrEmailRequired)

	_, _, err = m.Begin(context.Background(), "/", "")
	require.Error(t, err)
}

func TestSafeReturnURL(t *testing.T) {
	require.Equal(t, "/roadmap", SafeReturnURL("/roadmap"))
	require.Equal(t, "/", SafeReturnURL(""))
	require.Equal(t, "/", SafeReturnURL("https://evil.example"))
	require.Equal(t, "/", SafeReturnURL("//evil.example"))
	require.Equal(t, "/", SafeReturnURL("/\\evil.example"))
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	require.Equal(t, "cookie-token", TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer header-token")
	require.Equal(t, "header-token", TokenFromRequest(req))
}

func TestCookieConfig(t *testing.T) {
	cfg := CookieConfig{Secure: true, SameSite: ParseSameSite("strict")}

	session := cfg.SessionCookie("tok", time.Hour)
	require.Equal(t, SessionCookieName, session.Name)
	require.True(t, session.HttpOnly)
	require.True(t, session.Secure)
	require.Equal(t, http.SameSiteStrictMode, session.SameSite)
	require.Equal(t, 3600, session.MaxAge)

	expired := cfg.Expire(SessionCookieName)
	require.Equal(t, -1, expired.MaxAge)
	require.Equal(t, http.SameSiteLaxMode, ParseSameSite("bogus"))
}
