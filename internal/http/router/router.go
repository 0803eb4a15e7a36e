package router

import (
	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/handler"
	"workdiary.app/server/internal/http/middleware"
	"workdiary.app/server/internal/service"
)

type RouterConfig struct {
	FrontendURL  string
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(services.Auth())

	authHandler := handler.NewAuthHandler(services.Auth(), cfg.FrontendURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler, requireAuth)

	v1 := router.Group("/api/v1")
	v1.Use(requireAuth)
	{
		connectHandler := handler.NewConnectHandler(services.Connections(), cfg.FrontendURL, cfg.IsProduction)
		ConnectRouter(v1.Group("/connections"), router.Group("/connect"), connectHandler)

		activityHandler := handler.NewActivityHandler(services.Activity())
		ActivityRouter(v1.Group("/activity"), activityHandler)

		nudgeHandler := handler.NewNudgeHandler(services.Nudges())
		NudgeRouter(v1.Group("/nudges"), nudgeHandler)
	}
}
