// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	ctxPkg "github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assettype"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/service"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/queue"
	"github.com/gamepoet/blink-assetsrv/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 按 pipeline.sweep_interval 周期扫描未完成的构建并重新入队.
//
// 队列按 at-least-once 投递且每个阶段是幂等的，所以补偿扫描可以放心地
// 重复入队；它只救回作业丢失或 worker 崩溃后卡住的记录.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	cfg := configs.GetConfig().Pipeline

	return sched.AddInterval(JobBuildSweep, cfg.SweepInterval, func(ctx context.Context) {
		runBuildSweep(ctx, mgr, &cfg)
	}, baseCtx)
}

// runBuildSweep 重新入队所有滞留的未完成构建.
func runBuildSweep(ctx context.Context, mgr *storage.Manager, cfg *configs.PipelineConfig) {
	l := log.Logger().With().Str("job", JobBuildSweep).Logger()

	pub := mgr.GetMQClient().Publisher()
	olderThan := time.Now().Add(-cfg.SweepAge)

	for _, assetType := range assettype.RegisteredTypes() {
		svc := service.NewAssetService(ctx)

		recs, err := svc.ListStale(ctx, assetType, olderThan)
		if err != nil {
			l.Error().Err(err).Str("asset_type", assetType).Msg("list stale assets failed")
			continue
		}

		requeued := 0

		for i := range recs {
			rec := &recs[i]

			// 还没有源数据的记录在等上传，不归扫描管
			if rec.FileRefs[model.StageSource] == "" {
				continue
			}

			if !rec.StageBuilt(model.StageSource) {
				err := queue.PublishSourceJob(pub, queue.SourceJobPayload{
					AssetType:  rec.AssetType,
					ID:         rec.ID,
					MinVersion: rec.Version,
				}, queue.WithProducer(configs.AppName+"-sweep"))
				if err != nil {
					l.Error().Err(err).Str("id", rec.ID).Msg("requeue source job failed")
					continue
				}

				requeued++

				continue
			}

			for _, platform := range cfg.Platforms {
				if rec.StageBuilt(platform) {
					continue
				}

				err := queue.PublishPlatformJob(pub, queue.PlatformJobPayload{
					AssetType:  rec.AssetType,
					ID:         rec.ID,
					Platform:   platform,
					MinVersion: rec.Version,
				}, queue.WithProducer(configs.AppName+"-sweep"))
				if err != nil {
					l.Error().Err(err).Str("id", rec.ID).Str("platform", platform).Msg("requeue platform job failed")
					continue
				}

				requeued++
			}
		}

		if requeued > 0 {
			l.Info().Str("asset_type", assetType).Int("requeued", requeued).Msg("build sweep requeued jobs")
		}
	}
}
