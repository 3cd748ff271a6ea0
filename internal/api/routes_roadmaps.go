package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/handlers"
)

func registerRoadmapRoutes(api *gin.RouterGroup, handler *handlers.RoadmapHandler, events *handlers.EventsHandler, requireSession gin.HandlerFunc) {
	roadmaps := api.Group("/roadmap", requireSession)
	{
		roadmaps.POST("", handler.Create)
		roadmaps.GET("", handler.List)
		roadmaps.GET("/:id", handler.Get)
		roadmaps.PATCH("/:id", handler.Update)
		roadmaps.DELETE("/:id", handler.Delete)
		roadmaps.POST("/:id/restore", handler.Restore)
		roadmaps.GET("/:id/features", handler.Features)
		roadmaps.GET("/:id/events", events.Stream)
	}
}
