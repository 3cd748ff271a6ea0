package app

import (
	"strings"

	"github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/auth/providers"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// CookieConfig converts the cookie settings into the auth package representation.
func (c AuthConfig) CookieConfig() auth.CookieConfig {
	return auth.CookieConfig{
		Domain:   strings.TrimSpace(c.Cookie.Domain),
		Secure:   c.Cookie.Secure,
		SameSite: auth.ParseSameSite(c.Cookie.SameSite),
	}
}

// GoogleProviderConfig converts the Google settings into provider parameters.
func (c AuthConfig) GoogleProviderConfig() providers.GoogleConfig {
	issuer := strings.TrimSpace(c.Google.Issuer)
	if issuer == "" {
		issuer = providers.GoogleIssuer
	}
	return providers.GoogleConfig{
		ClientID:     strings.TrimSpace(c.Google.ClientID),
		ClientSecret: c.Google.ClientSecret,
		RedirectURL:  strings.TrimSpace(c.Google.RedirectURL),
		Issuer:       issuer,
		Scopes:       c.Google.Scopes,
	}
}
