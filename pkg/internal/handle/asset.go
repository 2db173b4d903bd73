package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/service"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/types"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
)

// ListAssets 返回指定类型的全部资产记录.
func ListAssets(c *gin.Context) {
	assetType, ok := checkAssetType(c)
	if !ok {
		return
	}

	svc := service.NewAssetService(c.Request.Context())

	recs, err := svc.List(c.Request.Context(), assetType)
	if err != nil {
		log.Logger().Error().Err(err).Str("asset_type", assetType).Msg("failed to list assets")
		abortWithErr(c, err)

		return
	}

	c.JSON(http.StatusOK, recs)
}

// GetAsset 返回单条资产记录.
func GetAsset(c *gin.Context) {
	assetType, ok := checkAssetType(c)
	if !ok {
		return
	}

	svc := service.NewAssetService(c.Request.Context())

	rec, err := svc.Get(c.Request.Context(), assetType, c.Param("id"))
	if err != nil {
		abortWithErr(c, err)

		return
	}

	c.JSON(http.StatusOK, rec)
}

// SubmitAsset 提交新资产：记录由规范化文件名派生 id，以版本 0 创建.
func SubmitAsset(c *gin.Context) {
	assetLog := log.Logger()

	assetType, ok := checkAssetType(c)
	if !ok {
		return
	}

	var req types.SubmitAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		assetLog.Warn().Err(err).Msg("invalid submit request")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	svc := service.NewAssetService(c.Request.Context())

	rec, err := svc.Submit(c.Request.Context(), assetType, req.Filename, req.Metadata)
	if err != nil {
		assetLog.Warn().Err(err).
			Str("asset_type", assetType).
			Str("filename", req.Filename).
			Msg("submit rejected")
		abortWithErr(c, err)

		return
	}

	assetLog.Info().
		Str("asset_type", assetType).
		Str("id", rec.ID).
		Str("filename", rec.Filename).
		Msg("asset submitted")
	c.JSON(http.StatusCreated, rec)
}

// UpdateAsset 应用一次编辑器元数据增量，返回更新后的记录.
func UpdateAsset(c *gin.Context) {
	assetLog := log.Logger()

	assetType, ok := checkAssetType(c)
	if !ok {
		return
	}

	var req types.DeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		assetLog.Warn().Err(err).Msg("invalid delta request")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	svc := service.NewAssetService(c.Request.Context())

	rec, err := svc.ApplyDelta(c.Request.Context(), assetType, c.Param("id"), req.Delta)
	if err != nil {
		assetLog.Warn().Err(err).
			Str("asset_type", assetType).
			Str("id", c.Param("id")).
			Msg("delta rejected")
		abortWithErr(c, err)

		return
	}

	c.JSON(http.StatusOK, rec)
}
