package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/service"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/types"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
)

// MaxSourceSize 源文件大小上限.
const MaxSourceSize = 256 * 1024 * 1024 // 256MB

// UploadBulk 接收资产源二进制（原始请求体）并触发构建.
func UploadBulk(c *gin.Context) {
	bulkLog := log.Logger()

	assetType, ok := checkAssetType(c)
	if !ok {
		return
	}

	id := c.Param("id")

	size := c.Request.ContentLength
	if size > MaxSourceSize {
		bulkLog.Warn().Int64("size", size).Msg("source data exceeds limit")
		c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: "source data too large"})

		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxSourceSize)

	svc := service.NewAssetService(c.Request.Context())

	rec, err := svc.UploadBulk(c.Request.Context(), assetType, id, body, size)
	if err != nil {
		bulkLog.Warn().Err(err).
			Str("asset_type", assetType).
			Str("id", id).
			Msg("source upload rejected")
		abortWithErr(c, err)

		return
	}

	bulkLog.Info().
		Str("asset_type", assetType).
		Str("id", id).
		Int64("size", size).
		Msg("source data attached")
	c.JSON(http.StatusOK, rec)
}

// DownloadBulk 按阶段流式返回资产二进制，?stage= 省略时为源阶段.
func DownloadBulk(c *gin.Context) {
	assetType, ok := checkAssetType(c)
	if !ok {
		return
	}

	id := c.Param("id")
	stage := c.Query("stage")

	svc := service.NewAssetService(c.Request.Context())

	rc, err := svc.DownloadBulk(c.Request.Context(), assetType, id, stage)
	if err != nil {
		abortWithErr(c, err)

		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.Logger().Error().Err(err).
			Str("asset_type", assetType).
			Str("id", id).
			Msg("failed to stream asset data")
	}
}
