package router

import (
	"github.com/leapzhao/json-docstore/config"
	"github.com/leapzhao/json-docstore/handler"
	"github.com/leapzhao/json-docstore/middleware"

	"github.com/gin-gonic/gin"
)

// Init 初始化路由
func Init(cfg config.Config, h *handler.DocumentHandler) *gin.Engine {
	if cfg.Environment == config.EnvProduct {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())

	r.GET("/", h.Index)

	write := []gin.HandlerFunc{
		middleware.InFlightLimit(cfg.Server.MaxInFlight),
		middleware.BodySizeLimit(cfg.Server.MaxBodyBytes),
		middleware.RequireJSON(),
		h.StoreDocument,
	}

	// 原服务的写入路由
	r.POST("/store", write...)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/documents", write...)
		v1.GET("/health", h.HealthCheck)
		v1.GET("/metrics", h.Metrics)
		v1.GET("/version", h.Version)
	}

	return r
}
