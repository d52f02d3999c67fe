package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/renderprep-backend/internal/handlers"
	"github.com/yungbote/renderprep-backend/internal/middleware"
)

type RouterConfig struct {
	PipelineHandler *handlers.PipelineHandler
	AllowOrigins    []string
	Middleware      []gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceContext())
	for _, mw := range cfg.Middleware {
		router.Use(mw)
	}

	// Cors
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/pipeline/process", cfg.PipelineHandler.Process)
		api.GET("/pipeline/stats", cfg.PipelineHandler.Stats)
	}

	return router
}
