package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/roadboard/internal/auth"
	"github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Session requires a valid session token from the Authorization header or the
// session cookie. Requests without one are rejected with 403.
func Session(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := iauth.TokenFromRequest(c.Request)
		if token == "" {
			response.Abort(c, errors.ErrForbidden)
			return
		}

		claims, err := jwt.Validate(token)
		if err != nil {
			logger.WithModule("auth").Debug("session rejected",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			response.Abort(c, errors.ErrForbidden)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalSession attaches the session identity when one is present but never rejects.
func OptionalSession(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := iauth.TokenFromRequest(c.Request); token != "" {
			if claims, err := jwt.Validate(token); err == nil {
				c.Set(CtxClaimsKey, claims)
				c.Set(CtxUserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Claims returns the validated session claims, if any.
func Claims(c *gin.Context) (*iauth.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*iauth.Claims)
	return claims, ok
}
