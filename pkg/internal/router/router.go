// Package router 管理路由配置，将 HTTP 路径绑定到 handle 包的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册全部业务路由到 gin 引擎.
func RegisterRoutes(engine *gin.Engine) {
	root := engine.Group("/")
	{
		RegisterAssetsRoutes(root)
		RegisterSessionRoutes(root)
		RegisterHealthCheckRoute(root)
	}
}
