package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/gamepoet/blink-assetsrv/pkg/context"
)

const healthTimeout = 2 * time.Second

func healthOK(c *gin.Context, component string) {
	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

func healthFail(c *gin.Context, component string, err error) {
	c.JSON(http.StatusServiceUnavailable,
		gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
}

// HealthDB 资产记录库健康检查，ping 一次底层连接.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		healthFail(c, "db", errors.New("db client not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	sqlDB, err := dbc.DB.DB()
	if err != nil {
		healthFail(c, "db", err)
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		healthFail(c, "db", err)
		return
	}

	healthOK(c, "db")
}

// HealthS3 blob 存储健康检查.
func HealthS3(c *gin.Context) {
	s3c := ctxPkg.GetS3Client(c.Request.Context())
	if s3c == nil || s3c.Client == nil {
		healthFail(c, "s3", errors.New("s3 client not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s3c.HealthCheck(ctx); err != nil {
		healthFail(c, "s3", err)
		return
	}

	healthOK(c, "s3")
}

// HealthMQ 作业队列健康检查.
// publisher/subscriber 在初始化时已连通，这里只验证客户端仍在位.
func HealthMQ(c *gin.Context) {
	if ctxPkg.GetMQClient(c.Request.Context()) == nil {
		healthFail(c, "mq", errors.New("mq client not initialized"))
		return
	}

	healthOK(c, "mq")
}

// HealthKV 会话存储健康检查，发一次 Exists 探活.
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil {
		healthFail(c, "kv", errors.New("kv client not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if _, err := kvc.Exists(ctx, "health"); err != nil {
		healthFail(c, "kv", err)
		return
	}

	healthOK(c, "kv")
}
