package router

import (
	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/handle"
)

// RegisterHealthCheckRoute 按存储组件拆分的健康检查端点.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	health := g.Group("/health")
	{
		health.GET("/db", handle.HealthDB)
		health.GET("/s3", handle.HealthS3)
		health.GET("/mq", handle.HealthMQ)
		health.GET("/kv", handle.HealthKV)
	}
}
