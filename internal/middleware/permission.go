package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/metrics"
	"github.com/charlesng35/roadboard/pkg/response"
)

// RequireSelf only lets the authenticated user act on the user named by the
// route parameter param.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Abort(c, errors.ErrForbidden)
			return
		}
		if !strings.EqualFold(strings.TrimSpace(c.Param(param)), userID) {
			metrics.AccessChecks.WithLabelValues("user", "deny").Inc()
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		metrics.AccessChecks.WithLabelValues("user", "allow").Inc()
		c.Next()
	}
}
