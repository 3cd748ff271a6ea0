package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/monitoring"
	"github.com/charlesng35/roadboard/pkg/response"
)

// Health evaluates the registered dependency probes. A degraded report is
// still served with 200; any probe that is down yields 503.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))
		if report.Status == monitoring.StatusDown {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    report,
				Error:   &response.ErrorInfo{Code: "SERVICE_UNAVAILABLE", Message: "one or more dependencies are down"},
			})
			return
		}
		response.Success(c, http.StatusOK, report)
	}
}
