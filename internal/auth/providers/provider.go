// Package providers implements external identity providers used to sign in.
package providers

import "context"

// BeginAuthRequest carries the values bound into the provider redirect.
type BeginAuthRequest struct {
	State         string
	Nonce         string
	PKCEChallenge string
	Prompt        string
}

// BeginAuthResponse tells the caller where to send the browser.
type BeginAuthResponse struct {
	RedirectURL string
	State       string
}

// CallbackRequest holds the query parameters the provider redirected back with.
type CallbackRequest struct {
	Code          string
	Error         string
	PKCEVerifier  string
	ExpectedNonce string
}

// Identity represents the verified claims returned by a provider.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	AvatarURL     string
}

// Provider is an interactive, redirect based identity provider.
type Provider interface {
	Name() string
	Begin(ctx context.Context, req BeginAuthRequest) (*BeginAuthResponse, error)
	Callback(ctx context.Context, req CallbackRequest) (*Identity, error)
}
