package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/alerting"
	"github.com/charlesng35/roadboard/internal/queue"
	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
)

// AlertCriticalErrors inspects the errors recorded while handling a request.
// Critical ones are logged and, when jobs is non-nil, queued as Slack alerts.
func AlertCriticalErrors(jobs queue.Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		log := logger.WithModule("alerting")
		for _, ginErr := range c.Errors {
			if !apperrors.IsCritical(ginErr.Err) {
				continue
			}

			appErr := apperrors.FromError(ginErr.Err)
			log.Error("critical error",
				zap.String("code", appErr.Code),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(ginErr.Err),
			)

			alert := alerting.ErrorAlert(ginErr.Err)
			alert.Method = c.Request.Method
			alert.Path = c.Request.URL.Path
			if userID := UserID(c); userID != "" {
				if alert.Context == nil {
					alert.Context = map[string]string{}
				}
				alert.Context["userId"] = userID
			}

			ctx := context.WithoutCancel(c.Request.Context())
			if err := queue.EnqueueAlert(ctx, jobs, alert); err != nil {
				log.Warn("failed to enqueue alert", zap.Error(err))
			}
		}
	}
}
