// Package security audits the runtime configuration for unsafe settings.
package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/roadboard/internal/app"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
}

// Result aggregates all checks with a simple status summary.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Failed returns the checks that did not pass.
func (r Result) Failed() []Check {
	var out []Check
	for _, check := range r.Checks {
		if check.Status != StatusPass {
			out = append(out, check)
		}
	}
	return out
}

const maxRecommendedSessionTTL = 30 * 24 * time.Hour

// AuditService evaluates the configuration a server is about to start with.
type AuditService struct {
	cfg *app.Config
	now func() time.Time
}

// NewAuditService constructs the audit service.
func NewAuditService(cfg *app.Config) *AuditService {
	return &AuditService{cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used in results.
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes all audit checks and returns their outcome.
func (s *AuditService) Run() Result {
	var checks []Check
	if s.cfg == nil {
		checks = []Check{{
			ID:          "config_loaded",
			Status:      StatusFail,
			Message:     "Configuration not loaded.",
			Remediation: "Load configuration before running the security audit.",
		}}
	} else {
		checks = []Check{
			s.checkJWTSecret(),
			s.checkSessionTTL(),
			s.checkSecureCookies(),
			s.checkDevLogin(),
			s.checkAllowedOrigins(),
		}
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

func (s *AuditService) checkJWTSecret() Check {
	length := len(strings.TrimSpace(s.cfg.Auth.JWT.Secret))

	switch {
	case length == 0:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusFail,
			Message:     "Missing JWT signing secret.",
			Remediation: "Provide a cryptographically secure signing secret (>= 32 bytes).",
		}
	case length < 32:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: "Use a randomly generated secret of at least 32 bytes.",
		}
	case length < 48:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("JWT signing secret is %d bytes. Consider increasing to 48+ bytes.", length),
			Remediation: fmt.Sprintf("Increase the length of %s_AUTH_JWT_SECRET to at least 48 bytes.", app.EnvPrefix),
		}
	default:
		return Check{
			ID:      "jwt_secret_strength",
			Status:  StatusPass,
			Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
		}
	}
}

func (s *AuditService) checkSessionTTL() Check {
	ttl := s.cfg.Auth.JWT.TTL
	if ttl <= 0 {
		return Check{
			ID:          "session_ttl",
			Status:      StatusWarn,
			Message:     "Session TTL is not configured; using default duration.",
			Remediation: fmt.Sprintf("Set %s_AUTH_JWT_SESSION_TTL to control session lifetime.", app.EnvPrefix),
		}
	}
	if ttl > maxRecommendedSessionTTL {
		return Check{
			ID:          "session_ttl",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Session TTL (%s) exceeds recommended maximum (%s).", ttl, maxRecommendedSessionTTL),
			Remediation: "Reduce the session TTL to 30 days or lower to limit token exposure.",
		}
	}
	return Check{
		ID:      "session_ttl",
		Status:  StatusPass,
		Message: fmt.Sprintf("Session TTL is %s.", ttl),
	}
}

func (s *AuditService) checkSecureCookies() Check {
	if s.cfg.Auth.Cookie.Secure {
		return Check{ID: "secure_cookies", Status: StatusPass, Message: "Cookies are marked Secure."}
	}
	status := StatusWarn
	if s.cfg.Server.IsProduction() {
		status = StatusFail
	}
	return Check{
		ID:          "secure_cookies",
		Status:      status,
		Message:     "Session and vote cookies are sent over plain HTTP.",
		Remediation: "Enable auth.cookie.secure when serving over HTTPS.",
	}
}

func (s *AuditService) checkDevLogin() Check {
	if !s.cfg.Auth.DevLogin.Enabled {
		return Check{ID: "dev_login", Status: StatusPass, Message: "Development login is disabled."}
	}
	status := StatusWarn
	if s.cfg.Server.IsProduction() {
		status = StatusFail
	}
	return Check{
		ID:          "dev_login",
		Status:      status,
		Message:     "Development login lets anyone sign in as any email address.",
		Remediation: "Disable auth.dev_login outside local development.",
	}
}

func (s *AuditService) checkAllowedOrigins() Check {
	for _, origin := range s.cfg.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return Check{
				ID:          "allowed_origins",
				Status:      StatusWarn,
				Message:     "Any origin may call the authenticated API.",
				Remediation: "List the dashboard origins in server.allowed_origins instead of '*'.",
			}
		}
	}
	return Check{ID: "allowed_origins", Status: StatusPass, Message: "API origins are restricted."}
}
