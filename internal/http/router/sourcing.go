package router

import (
	"github.com/gin-gonic/gin"

	"talentgraph.app/sourcer/internal/http/handler"
)

func SourcingRouter(router *gin.RouterGroup, handler *handler.SourcingHandler) {
	router.POST("/:externalJobId/source", handler.Source)
	router.GET("/:externalJobId/results", handler.Results)
}
