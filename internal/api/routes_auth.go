package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/roadboard/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler, requireSession gin.HandlerFunc, devLogin bool) {
	auth := api.Group("/auth")
	{
		auth.GET("/google/login", handler.GoogleLogin)
		auth.GET("/google/callback", handler.GoogleCallback)
		auth.POST("/logout", handler.Logout)
		auth.GET("/me", requireSession, handler.Me)
	}
	if devLogin {
		auth.POST("/dev/login", handler.DevLogin)
	}
}
