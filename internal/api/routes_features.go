package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/handlers"
)

func registerFeatureRoutes(api *gin.RouterGroup, handler *handlers.FeatureHandler, requireSession, voteLimit gin.HandlerFunc) {
	features := api.Group("/feature")
	{
		features.POST("", requireSession, handler.Create)
		features.GET("/:id", requireSession, handler.Get)
		features.PATCH("/:id", requireSession, handler.Update)
		features.DELETE("/:id", requireSession, handler.Delete)
		features.POST("/:id/restore", requireSession, handler.Restore)
		// Anonymous votes come from embedded boards.
		features.POST("/:id/vote", voteLimit, handler.Vote)
	}
}
