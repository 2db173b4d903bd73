package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gamepoet/blink-assetsrv/pkg/app"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/jobs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/service"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/scheduler"
	"github.com/gamepoet/blink-assetsrv/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API together with build workers and the sweep scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := app.NewApp(configPath)

		baseCtx := a.Context()

		ctx, stop := signal.NotifyContext(baseCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// 构建 worker 与 HTTP 共进程跑，editor 一个进程即可得到完整服务
		worker := service.NewBuildWorker(baseCtx)

		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Logger().Error().Err(err).Msg("build worker stopped")
			}
		}()

		sched, err := scheduler.NewScheduler()
		if err != nil {
			return err
		}

		if err := jobs.RegisterCronJobs(sched, a.Manager); err != nil {
			return err
		}

		sched.Start()

		errCh := make(chan error, 1)

		go func() {
			errCh <- a.Run()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Logger().Info().Msg("shutting down")

		_ = sched.Stop()
		_ = tracing.ShutdownTracer(context.Background())

		return a.Manager.Close()
	},
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
