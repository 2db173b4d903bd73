package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/metrics"
	"github.com/gamepoet/blink-assetsrv/pkg/queue"
)

// Subscriber 是 worker 消费作业所需的最小订阅能力.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Worker 从作业队列拉取构建作业并交给协调器执行.
// 队列按 at-least-once 投递；每个阶段在前置条件不成立时是幂等空操作，
// 因此重复投递与多 worker 竞争都是安全的.
type Worker struct {
	coord *Coordinator
	sub   Subscriber
	cfg   *configs.PipelineConfig
}

// NewWorker 创建作业 worker.
func NewWorker(coord *Coordinator, sub Subscriber, cfg *configs.PipelineConfig) *Worker {
	return &Worker{coord: coord, sub: sub, cfg: cfg}
}

// Run 启动消费循环，阻塞直到 ctx 取消或订阅通道关闭.
func (w *Worker) Run(ctx context.Context) error {
	srcCh, err := w.sub.Subscribe(ctx, queue.TopicAssetSourceRequested)
	if err != nil {
		return err
	}

	platCh, err := w.sub.Subscribe(ctx, queue.TopicAssetPlatformRequested)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	sourceWorkers := w.cfg.SourceWorkers
	if sourceWorkers < 1 {
		sourceWorkers = configs.DefaultSourceWorkers
	}

	compileWorkers := w.cfg.CompileWorkers
	if compileWorkers < 1 {
		compileWorkers = configs.DefaultCompileWorkers
	}

	for i := 0; i < sourceWorkers; i++ {
		g.Go(func() error {
			w.consumeSource(ctx, srcCh)
			return nil
		})
	}

	for i := 0; i < compileWorkers; i++ {
		g.Go(func() error {
			w.consumePlatform(ctx, platCh)
			return nil
		})
	}

	nlog.Logger().Info().
		Int("source_workers", sourceWorkers).
		Int("compile_workers", compileWorkers).
		Msg("build workers started")

	return g.Wait()
}

func (w *Worker) consumeSource(ctx context.Context, ch <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			env, err := queue.ParseSourceJob(msg)
			if err != nil {
				nlog.Logger().Error().Err(err).Str("msg_id", msg.UUID).Msg("malformed source job")
				msg.Ack()

				continue
			}

			p := env.Payload

			start := time.Now()
			_, err = w.coord.ProcessSource(ctx, p.AssetType, p.ID, p.MinVersion)
			metrics.JobDuration.WithLabelValues("source").Observe(time.Since(start).Seconds())
			w.settle(msg, "source", p.ID, err)
		}
	}
}

func (w *Worker) consumePlatform(ctx context.Context, ch <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			env, err := queue.ParsePlatformJob(msg)
			if err != nil {
				nlog.Logger().Error().Err(err).Str("msg_id", msg.UUID).Msg("malformed platform job")
				msg.Ack()

				continue
			}

			p := env.Payload

			start := time.Now()
			_, err = w.coord.CompilePlatform(ctx, p.AssetType, p.ID, p.Platform, p.MinVersion)
			metrics.JobDuration.WithLabelValues(p.Platform).Observe(time.Since(start).Seconds())
			w.settle(msg, p.Platform, p.ID, err)
		}
	}
}

// settle 按错误分类确认或退回消息：
//   - nil / 可丢弃（NotFound、Conflict）：Ack，作业到此为止
//   - 解码失败、配置错误：Ack，重投不会改变结果，留给人工处理
//   - 其余（基础设施故障）：Nack，交给队列按投递策略重试
func (w *Worker) settle(msg *message.Message, stage, id string, err error) {
	switch {
	case err == nil:
		metrics.JobCounter.WithLabelValues(stage, "committed").Inc()
		msg.Ack()
	case pipeline.Discardable(err):
		metrics.JobCounter.WithLabelValues(stage, "discarded").Inc()
		nlog.Logger().Debug().Err(err).Str("id", id).Str("stage", stage).Msg("job discarded")
		msg.Ack()
	case errors.Is(err, pipeline.ErrDecodeFailure), errors.Is(err, pipeline.ErrConfiguration):
		metrics.JobCounter.WithLabelValues(stage, "failed").Inc()
		nlog.Logger().Error().Err(err).Str("id", id).Str("stage", stage).Msg("job failed")
		msg.Ack()
	default:
		metrics.JobCounter.WithLabelValues(stage, "redelivered").Inc()
		nlog.Logger().Warn().Err(err).Str("id", id).Str("stage", stage).Msg("job will be redelivered")
		msg.Nack()
	}
}
