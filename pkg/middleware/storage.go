package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器注入请求 context，handler 层经 service 取各客户端.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(
			context.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}
