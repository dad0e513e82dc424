package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dealscout/backend/internal/handlers"
	"github.com/dealscout/backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	DealsHandler        *handlers.DealsHandler
	AutocompleteHandler *handlers.AutocompleteHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/", handlers.Root)
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		api.GET("/autocomplete", cfg.AutocompleteHandler.GetSuggestions)
		api.POST("/deals", cfg.DealsHandler.GetProductDeals)
	}

	return router
}
