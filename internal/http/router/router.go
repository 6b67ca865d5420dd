package router

import (
	"github.com/gin-gonic/gin"

	"talentgraph.app/sourcer/internal/http/handler"
	"talentgraph.app/sourcer/internal/service"
)

type RouterConfig struct {
	TraceHeaderName string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		sourcingHandler := handler.NewSourcingHandler(services.Sourcing(), cfg.TraceHeaderName)
		SourcingRouter(v1.Group("/jobs"), sourcingHandler)
	}
}
