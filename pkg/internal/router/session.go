package router

import (
	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/handle"
)

// RegisterSessionRoutes 注册编辑会话文档路由.
func RegisterSessionRoutes(g *gin.RouterGroup) {
	sessionRoutes := g.Group("/session")
	{
		sessionRoutes.GET("", handle.GetSession)
		sessionRoutes.PUT("", handle.UpdateSession)
	}
}
