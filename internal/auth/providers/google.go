package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the OIDC discovery root for Google accounts.
const GoogleIssuer = "https://accounts.google.com"

// GoogleConfig configures Google sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Issuer overrides the discovery root; tests point it at a local server.
	Issuer string
	Scopes []string
}

// GoogleOptions tunes network behaviour of the provider.
type GoogleOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

type googleProvider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
	timeout     time.Duration
}

// NewGoogle runs OIDC discovery against the issuer and returns a provider
// that signs users in with the authorization code flow, PKCE and a nonce.
func NewGoogle(ctx context.Context, cfg GoogleConfig, opts GoogleOptions) (Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("google provider: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("google provider: client secret is required")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return nil, errors.New("google provider: redirect url is required")
	}

	issuerURL := strings.TrimSpace(cfg.Issuer)
	if issuerURL == "" {
		issuerURL = GoogleIssuer
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if opts.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, opts.HTTPClient)
	}
	discoveryCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	issuer, err := oidc.NewProvider(discoveryCtx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("google provider: discovery failed: %w", err)
	}

	return &googleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     issuer.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier:   issuer.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
	}, nil
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) Begin(_ context.Context, req BeginAuthRequest) (*BeginAuthResponse, error) {
	if strings.TrimSpace(req.State) == "" {
		return nil, errors.New("google provider: state is required")
	}
	if strings.TrimSpace(req.Nonce) == "" {
		return nil, errors.New("google provider: nonce is required")
	}
	if strings.TrimSpace(req.PKCEChallenge) == "" {
		return nil, errors.New("google provider: pkce challenge is required")
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = "consent"
	}
	url := p.oauthConfig.AuthCodeURL(req.State,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", prompt),
		oauth2.SetAuthURLParam("nonce", req.Nonce),
		oauth2.SetAuthURLParam("code_challenge", req.PKCEChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	return &BeginAuthResponse{RedirectURL: url, State: req.State}, nil
}

func (p *googleProvider) Callback(ctx context.Context, req CallbackRequest) (*Identity, error) {
	if req.Error != "" {
		return nil, fmt.Errorf("google provider: authorization error: %s", req.Error)
	}
	if req.Code == "" {
		return nil, errors.New("google provider: authorization code missing")
	}
	if strings.TrimSpace(req.PKCEVerifier) == "" {
		return nil, errors.New("google provider: pkce verifier is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if p.httpClient != nil {
		ctx = oidc.ClientContext(ctx, p.httpClient)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.oauthConfig.Exchange(ctx, req.Code, oauth2.VerifierOption(req.PKCEVerifier))
	if err != nil {
		return nil, fmt.Errorf("google provider: exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google provider: id token missing")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google provider: verify id token: %w", err)
	}
	if req.ExpectedNonce != "" && idToken.Nonce != req.ExpectedNonce {
		return nil, errors.New("google provider: nonce mismatch")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google provider: decode claims: %w", err)
	}

	return &Identity{
		Provider:      p.Name(),
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		DisplayName:   claims.Name,
		AvatarURL:     claims.Picture,
	}, nil
}
