package transport

import (
	"github.com/ds124wfegd/pixelcanvas/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(handler *CanvasHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		api.POST("/pixels", handler.UpdatePixel)
		api.GET("/pixels", handler.GetPixel)
		api.GET("/canvas", handler.CanvasInfo)
		api.GET("/snapshots", handler.ListSnapshots)
		api.GET("/snapshots/:id", handler.GetSnapshot)
	}

	router.GET("/health", handler.Health)

	// everything else goes through the renderer's own routing
	router.NoRoute(handler.HTTPRequest)

	return router
}
