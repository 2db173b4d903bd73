package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/service"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/types"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
)

// GetSession 返回当前会话文档.
func GetSession(c *gin.Context) {
	svc := service.NewSessionService(c.Request.Context())

	rec, err := svc.Get(c.Request.Context())
	if err != nil {
		log.Logger().Error().Err(err).Msg("failed to load session")
		abortWithErr(c, err)

		return
	}

	c.JSON(http.StatusOK, types.SessionResponse{Doc: rec.Doc, UpdatedAt: rec.UpdatedAt})
}

// UpdateSession 合并一次会话增量，返回合并后的文档.
func UpdateSession(c *gin.Context) {
	sessionLog := log.Logger()

	var req types.DeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sessionLog.Warn().Err(err).Msg("invalid session delta")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})

		return
	}

	svc := service.NewSessionService(c.Request.Context())

	rec, err := svc.ApplyDelta(c.Request.Context(), req.Delta)
	if err != nil {
		sessionLog.Error().Err(err).Msg("failed to apply session delta")
		abortWithErr(c, err)

		return
	}

	c.JSON(http.StatusOK, types.SessionResponse{Doc: rec.Doc, UpdatedAt: rec.UpdatedAt})
}
