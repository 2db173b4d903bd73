package service

import (
	"context"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	ctxPkg "github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/coordinator"
)

// NewBuildWorker 从上下文中的存储管理器装配构建 worker.
// MQ 客户端同时充当作业订阅者.
func NewBuildWorker(c context.Context) *coordinator.Worker {
	mqc := ctxPkg.GetMQClient(c)
	cfg := configs.GetConfig()

	svc := NewAssetService(c)

	return coordinator.NewWorker(svc.coord, mqc, &cfg.Pipeline)
}
