package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/log"
)

// GinLoggerMiddleware 用 zerolog 记录访问日志，5xx 提升为 error 级别.
func GinLoggerMiddleware() gin.HandlerFunc {
	httpLog := log.Component("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}

		c.Next()

		status := c.Writer.Status()

		evt := httpLog.Info()
		if status >= http.StatusInternalServerError {
			evt = httpLog.Error()
		}

		evt = evt.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Int("bytes", c.Writer.Size())

		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.Msg("request")
	}
}
