// Package app 装配 HTTP 服务：配置、日志、追踪、指标、存储、中间件与路由.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/router"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/metrics"
	"github.com/gamepoet/blink-assetsrv/pkg/middleware"
	"github.com/gamepoet/blink-assetsrv/pkg/tracing"
)

// App 装配完成的应用.
type App struct {
	Engine  *gin.Engine
	Manager *storage.Manager

	config *configs.AppConfig
}

// mustInit 初始化失败没有可降级的余地，打印原因直接退出.
func mustInit(step string, err error) {
	if err != nil {
		fmt.Printf("init %s: %v\n", step, err)
		os.Exit(1)
	}
}

// NewApp 按配置装配整个服务.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	mustInit("config", configs.InitConfig(configPath))
	log.Init()

	cfg := configs.GetConfig()
	mustInit("tracing", tracing.InitTracer(cfg.Tracing))
	mustInit("metrics", metrics.InitMetrics(cfg.Metrics))

	manager, err := storage.Init(ctx)
	mustInit("storage", err)

	// 资产记录表建表
	mustInit("migrate", assetstore.New(manager.GetDBClient().GetDB()).AutoMigrate())

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.CORSMiddleware(cfg.Server),
		middleware.GinLoggerMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
	)

	if cfg.RateLimit.Enabled {
		engine.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
	}

	if cfg.CircuitBreaker.Enabled {
		engine.Use(middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker))
	}

	if cfg.Metrics.Enabled {
		_ = metrics.StartMetricsServer(cfg.Metrics, engine)
	}

	router.RegisterRoutes(engine)

	return &App{Engine: engine, Manager: manager, config: cfg}
}

// Context 返回携带存储管理器的根上下文，worker 与调度器从这里派生.
func (a *App) Context() contextPkg.Context {
	return context.WithStorageManager(contextPkg.Background(), a.Manager)
}

// Run 启动 HTTP 服务，阻塞到出错为止.
func (a *App) Run() error {
	return a.Engine.Run(a.config.Server.Addr())
}
