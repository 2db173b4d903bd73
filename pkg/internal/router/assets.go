package router

import (
	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/handle"
)

// RegisterAssetsRoutes 注册资产记录与构建产物相关路由.
func RegisterAssetsRoutes(g *gin.RouterGroup) {
	assetsRoutes := g.Group("/assets/:type")
	{
		// 列表与提交
		assetsRoutes.GET("", handle.ListAssets)
		assetsRoutes.POST("", handle.SubmitAsset)

		// 单条记录操作
		singleGroup := assetsRoutes.Group("/:id")
		{
			singleGroup.GET("", handle.GetAsset)
			singleGroup.PUT("", handle.UpdateAsset)

			// 二进制数据上传与下载
			singleGroup.POST("/bulk", handle.UploadBulk)
			singleGroup.GET("/bulk", handle.DownloadBulk)
		}
	}
}
