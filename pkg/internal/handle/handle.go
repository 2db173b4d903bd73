// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/assettype"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/types"
)

// statusFromErr 把管线错误族映射为 HTTP 状态码.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrDuplicateID), errors.Is(err, pipeline.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrConfiguration), errors.Is(err, pipeline.ErrDecodeFailure):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithErr 以统一错误响应结束请求.
func abortWithErr(c *gin.Context, err error) {
	c.JSON(statusFromErr(err), types.ErrorResponse{Error: err.Error()})
}

// checkAssetType 校验路径参数 :type 是已注册的资产类型.
func checkAssetType(c *gin.Context) (string, bool) {
	assetType := c.Param("type")
	if _, err := assettype.GetHandler(assetType); err != nil {
		abortWithErr(c, err)

		return "", false
	}

	return assetType, true
}
