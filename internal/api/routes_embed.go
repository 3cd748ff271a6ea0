package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/handlers"
	"github.com/charlesng35/roadboard/internal/middleware"
)

func registerEmbedRoutes(r *gin.Engine, handler *handlers.EmbedHandler, frameAncestors []string) {
	data := r.Group("/api/roadmap/:id/embed", middleware.EmbedCORS(), middleware.FrameableSecurityHeaders(frameAncestors...))
	{
		data.GET("", handler.Data)
		data.OPTIONS("", func(*gin.Context) {})
	}

	page := r.Group("/embed/roadmap", middleware.EmbedCORS(), middleware.FrameableSecurityHeaders(frameAncestors...))
	page.GET("/:id", handler.Page)
}
