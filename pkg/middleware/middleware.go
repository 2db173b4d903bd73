// Package middleware 提供中间件
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/metrics"
)

// PrometheusMiddleware 创建Gin的Prometheus中间件.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		method := c.Request.Method

		// 执行下一个中间件/处理器
		c.Next()

		duration := time.Since(start).Seconds()

		metrics.RequestCounter.WithLabelValues(method, path).Inc()
		metrics.RequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// CORSMiddleware CORS中间件，编辑器前端从 file:// 或独立端口访问服务.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}

	config.AllowFiles = true

	if cfg.Debug {
		config.AllowAllOrigins = true
	}

	return cors.New(config)
}
