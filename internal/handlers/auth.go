package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/internal/middleware"
	"github.com/charlesng35/roadboard/internal/services"
	appErrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/response"
)

const loginErrorPath = "/login"

// AuthHandler drives browser sign-in and exposes the current session.
type AuthHandler struct {
	login   *iauth.LoginManager
	users   *services.UserService
	cookies iauth.CookieConfig
	log     *zap.Logger
}

type devLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
	Ref   string `json:"ref" validate:"omitempty,max=30"`
}

type sessionResponse struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}

func NewAuthHandler(login *iauth.LoginManager, users *services.UserService, cookies iauth.CookieConfig) (*AuthHandler, error) {
	if login == nil || users == nil {
		return nil, errors.New("auth handler: login manager and user service are required")
	}
	return &AuthHandler{
		login:   login,
		users:   users,
		cookies: cookies,
		log:     logger.WithModule("auth"),
	}, nil
}

// GET /api/auth/google/login?redirect=&ref=
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.login.Enabled() {
		response.Error(c, appErrors.NewNotFound("Google sign-in is not configured"))
		return
	}

	ref := strings.TrimSpace(c.Query("ref"))
	if ref == "" {
		if cookie, err := c.Cookie(iauth.RefCookieName); err == nil {
			ref = cookie
		}
	}

	redirectURL, state, err := h.login.Begin(requestContext(c), c.Query("redirect"), ref)
	if err != nil {
		response.Error(c, appErrors.ErrExternalService.WithInternal(err))
		return
	}

	http.SetCookie(c.Writer, h.cookies.StateCookie(state, h.login.StateTTL()))
	c.Redirect(http.StatusFound, redirectURL)
}

// GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	cookieState, _ := c.Cookie(iauth.StateCookieName)
	http.SetCookie(c.Writer, h.cookies.Expire(iauth.StateCookieName))

	result, err := h.login.Complete(requestContext(c), c.Query("state"), cookieState, c.Query("code"), c.Query("error"))
	if err != nil {
		h.log.Warn("google sign-in failed", zap.Error(err))
		c.Redirect(http.StatusFound, loginErrorPath+"?error="+url.QueryEscape(loginErrorCode(err)))
		return
	}

	http.SetCookie(c.Writer, h.cookies.SessionCookie(result.Token, h.login.Tokens().TTL()))
	c.Redirect(http.StatusFound, result.ReturnURL)
}

// POST /api/auth/dev/login
func (h *AuthHandler) DevLogin(c *gin.Context) {
	var body devLoginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = strings.Split(body.Email, "@")[0]
	}

	result, err := h.login.SignIn(requestContext(c), services.Identity{Email: body.Email, Name: name}, body.Ref, "dev")
	if err != nil {
		response.Error(c, err)
		return
	}

	http.SetCookie(c.Writer, h.cookies.SessionCookie(result.Token, h.login.Tokens().TTL()))
	response.Success(c, http.StatusOK, sessionResponse{User: result.User, Token: result.Token})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, h.cookies.Expire(iauth.SessionCookieName))
	response.Success(c, http.StatusOK, gin.H{"loggedOut": true})
}

func loginErrorCode(err error) string {
	switch {
	case errors.Is(err, iauth.ErrStateMismatch),
		errors.Is(err, iauth.ErrStateInvalid),
		errors.Is(err, iauth.ErrStateExpired):
		return "sso_state"
	case errors.Is(err, iauth.ErrEmailRequired):
		return "email_required"
	default:
		return "sso_failed"
	}
}
