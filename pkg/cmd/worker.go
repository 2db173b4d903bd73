package cmd

import (
	contextPkg "context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/service"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/metrics"
	"github.com/gamepoet/blink-assetsrv/pkg/tracing"
)

// workerCmd 只跑构建 worker，不开 HTTP API；用于横向扩容编译吞吐.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run build workers only, without the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.InitConfig(configPath); err != nil {
			return fmt.Errorf("init config: %w", err)
		}

		log.Init()

		config := configs.GetConfig()
		if err := tracing.InitTracer(config.Tracing); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}

		if err := metrics.InitMetrics(config.Metrics); err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}

		manager, err := storage.Init(contextPkg.Background())
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}

		if err := assetstore.New(manager.GetDBClient().GetDB()).AutoMigrate(); err != nil {
			return fmt.Errorf("migrate asset store: %w", err)
		}

		baseCtx := context.WithStorageManager(contextPkg.Background(), manager)

		ctx, stop := signal.NotifyContext(baseCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		worker := service.NewBuildWorker(baseCtx)

		log.Logger().Info().Msg("build worker starting")

		runErr := worker.Run(ctx)

		_ = tracing.ShutdownTracer(contextPkg.Background())

		if closeErr := manager.Close(); runErr == nil {
			runErr = closeErr
		}

		return runErr
	},
}

// registerWorkerCommands 注册 worker 命令.
func registerWorkerCommands() {
	rootCmd.AddCommand(workerCmd)
}
