package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/auth/providers"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/services"
	"github.com/charlesng35/roadboard/pkg/crypto"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

var (
	// ErrEmailRequired indicates the provider returned no email address.
	ErrEmailRequired = errors.New("login: email is required")
	// ErrStateMismatch means the callback state does not match the login cookie.
	ErrStateMismatch = errors.New("login: state mismatch")
)

// Provisioner maps a verified identity to a local user, creating one on first login.
type Provisioner interface {
	Provision(ctx context.Context, identity services.Identity, ref string) (*models.User, bool, error)
}

// LoginResult is the outcome of a completed login.
type LoginResult struct {
	User      *models.User
	Token     string
	ReturnURL string
	Created   bool
}

// LoginManager drives the redirect login flow and issues sessions.
type LoginManager struct {
	provider providers.Provider
	states   *StateCodec
	tokens   *JWTService
	users    Provisioner
	log      *zap.Logger
}

// NewLoginManager constructs a LoginManager. provider may be nil when
// external sign-in is not configured; Begin and Complete then fail.
func NewLoginManager(provider providers.Provider, states *StateCodec, tokens *JWTService, users Provisioner) (*LoginManager, error) {
	if states == nil {
		return nil, errors.New("login: state codec is required")
	}
	if tokens == nil {
		return nil, errors.New("login: jwt service is required")
	}
	if users == nil {
		return nil, errors.New("login: provisioner is required")
	}
	return &LoginManager{
		provider: provider,
		states:   states,
		tokens:   tokens,
		users:    users,
		log:      logger.WithModule("auth"),
	}, nil
}

// Enabled reports whether an external provider is configured.
func (m *LoginManager) Enabled() bool { return m.provider != nil }

// Tokens exposes the session token service.
func (m *LoginManager) Tokens() *JWTService { return m.tokens }

// StateTTL is the lifetime of the login state cookie.
func (m *LoginManager) StateTTL() time.Duration { return m.states.TTL() }

// Begin starts a login. It returns the provider URL to redirect to and the
// sealed state that must be stored in the state cookie.
func (m *LoginManager) Begin(ctx context.Context, returnURL, ref string) (redirectURL, state string, err error) {
	if m.provider == nil {
		return "", "", errors.New("login: no identity provider configured")
	}

	pkce, err := GeneratePKCE()
	if err != nil {
		return "", "", err
	}
	nonce, err := crypto.GenerateToken(32)
	if err != nil {
		return "", "", fmt.Errorf("login: generate nonce: %w", err)
	}

	state, err = m.states.Encode(StatePayload{
		Provider:  m.provider.Name(),
		ReturnURL: SafeReturnURL(returnURL),
		Nonce:     nonce,
		PKCE:      pkce.Verifier,
		Ref:       strings.TrimSpace(ref),
	})
	if err != nil {
		return "", "", err
	}

	resp, err := m.provider.Begin(ctx, providers.BeginAuthRequest{
		State:         state,
		Nonce:         nonce,
		PKCEChallenge: pkce.Challenge,
	})
	if err != nil {
		return "", "", err
	}
	return resp.RedirectURL, state, nil
}

// Complete finishes a login from the provider callback. cookieState is the
// value of the state cookie and must equal the state query parameter.
func (m *LoginManager) Complete(ctx context.Context, queryState, cookieState, code, providerError string) (*LoginResult, error) {
	if m.provider == nil {
		return nil, errors.New("login: no identity provider configured")
	}
	if queryState == "" || queryState != cookieState {
		metrics.AuthAttempts.WithLabelValues(m.provider.Name(), "state_mismatch").Inc()
		return nil, ErrStateMismatch
	}

	payload, err := m.states.Decode(queryState)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(m.provider.Name(), "invalid_state").Inc()
		return nil, err
	}

	identity, err := m.provider.Callback(ctx, providers.CallbackRequest{
		Code:          code,
		Error:         providerError,
		PKCEVerifier:  payload.PKCE,
		ExpectedNonce: payload.Nonce,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(m.provider.Name(), "provider_error").Inc()
		return nil, err
	}

	result, err := m.SignIn(ctx, services.Identity{
		Email:     identity.Email,
		Name:      identity.DisplayName,
		AvatarURL: identity.AvatarURL,
	}, payload.Ref, m.provider.Name())
	if err != nil {
		return nil, err
	}
	result.ReturnURL = payload.ReturnURL
	return result, nil
}

// SignIn provisions the identity if needed and issues a session token.
func (m *LoginManager) SignIn(ctx context.Context, identity services.Identity, ref, provider string) (*LoginResult, error) {
	if strings.TrimSpace(identity.Email) == "" {
		metrics.AuthAttempts.WithLabelValues(provider, "no_email").Inc()
		return nil, ErrEmailRequired
	}

	user, created, err := m.users.Provision(ctx, identity, ref)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(provider, "error").Inc()
		return nil, err
	}
	token, err := m.tokens.IssueSession(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttempts.WithLabelValues(provider, "success").Inc()
	m.log.Info("user signed in",
		zap.String("user_id", user.ID),
		zap.String("provider", provider),
		zap.Bool("created", created))
	return &LoginResult{User: user, Token: token, ReturnURL: "/", Created: created}, nil
}

// SafeReturnURL keeps only same-site relative paths.
func SafeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/"
	}
	return raw
}
