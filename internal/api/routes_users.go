package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/handlers"
	"github.com/charlesng35/roadboard/internal/middleware"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, requireSession gin.HandlerFunc) {
	users := api.Group("/user")
	{
		users.POST("", handler.Create)
		users.GET("", requireSession, handler.List)
		users.GET("/:id", requireSession, handler.Get)
		users.PATCH("/:id", requireSession, middleware.RequireSelf("id"), handler.Update)
		users.DELETE("/:id", requireSession, middleware.RequireSelf("id"), handler.Delete)
	}
}
