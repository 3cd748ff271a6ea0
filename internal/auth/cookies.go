package auth

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names set by the login flow.
const (
	SessionCookieName = "roadboard_session"
	StateCookieName   = "roadboard_login_state"
	// RefCookieName carries the username of the inviting user.
	RefCookieName = "ref"
)

// CookieConfig controls attributes of cookies issued by the server.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// SessionCookie builds the HttpOnly cookie holding a session token.
func (c CookieConfig) SessionCookie(token string, ttl time.Duration) *http.Cookie {
	return c.cookie(SessionCookieName, token, ttl)
}

// StateCookie builds the short lived cookie bound to a login attempt.
func (c CookieConfig) StateCookie(state string, ttl time.Duration) *http.Cookie {
	return c.cookie(StateCookieName, state, ttl)
}

// Expire returns a cookie that deletes name in the browser.
func (c CookieConfig) Expire(name string) *http.Cookie {
	cookie := c.cookie(name, "", 0)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

func (c CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	sameSite := c.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = time.Now().Add(ttl)
	}
	return cookie
}

// ParseSameSite maps a config value to its http.SameSite mode. Unknown values
// fall back to Lax.
func ParseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// TokenFromRequest returns the bearer token or, failing that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
