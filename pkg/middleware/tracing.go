package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gamepoet/blink-assetsrv/pkg/tracing"
)

// TracingMiddleware 为每个请求开 span，span 名用路由模板避免 id 导致的基数爆炸.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.FullPath()
		if name == "" {
			name = "http.unmatched"
		}

		ctx, span := tracing.StartSpan(c.Request.Context(), name,
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.target", c.Request.URL.Path),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		// 资产路由带上类型与 id，排查单个资产的构建链路时有用
		if v := c.Param("type"); v != "" {
			span.SetAttributes(attribute.String("asset.type", v))
		}
		if v := c.Param("id"); v != "" {
			span.SetAttributes(attribute.String("asset.id", v))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))

		if len(c.Errors) > 0 {
			span.SetStatus(codes.Error, c.Errors.String())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}
