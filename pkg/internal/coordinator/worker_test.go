package coordinator_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/blob"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/compressor"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/coordinator"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
)

// TestWorkerDrivesPipelineEndToEnd 用进程内 pubsub 跑通完整流水线：
// 提交 → 挂源 → worker 消费源分析作业 → worker 消费编译作业 → 全阶段构建完成.
func TestWorkerDrivesPipelineEndToEnd(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	records := assetstore.New(db)
	if err := records.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, watermill.NopLogger{})
	defer pubsub.Close()

	cfg := &configs.PipelineConfig{
		Platforms:      []string{"osx_x64"},
		DefaultFormat:  "dxt5",
		DefaultLevels:  1,
		SourceWorkers:  1,
		CompileWorkers: 1,
	}

	blobs := blob.NewMemory()
	coord := coordinator.New(records, blobs, compressor.NewStdImage(), pubsub, cfg)
	worker := coordinator.NewWorker(coord, pubsub, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = worker.Run(ctx)
	}()

	rec, err := coord.Submit(ctx, model.AssetTypeTexture, "bricks.png", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	data := pngBytes(t, 16, 16)

	if _, err := coord.AttachSource(ctx, model.AssetTypeTexture, rec.ID, bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("AttachSource: %v", err)
	}

	deadline := time.After(8 * time.Second)

	for {
		select {
		case <-deadline:
			t.Fatal("pipeline did not complete in time")
		case <-time.After(20 * time.Millisecond):
		}

		cur, err := records.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}

		if cur.StageBuilt(model.StageSource) && cur.StageBuilt("osx_x64") {
			if cur.FileRefs["osx_x64"] == "" {
				t.Fatal("platform built without a blob ref")
			}

			cancel()
			<-done

			return
		}
	}
}
