// Package db 建立资产记录库连接，方言经工厂注册，构建 tag 可裁剪驱动.
package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
)

// DialectorFactory 由 dsn 构建 gorm 方言.
type DialectorFactory func(dsn string) gorm.Dialector

var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册方言工厂，各驱动文件在 init 里调用.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	dialectorFactories[dbType] = factory
}

// GetRegisteredDBTypes 返回编入本次构建的数据库类型.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for t := range dialectorFactories {
		types = append(types, t)
	}

	return types
}

// Client 资产记录库客户端.
type Client struct {
	*gorm.DB
}

// New 按配置连库并配置连接池，指标开启时挂上 GORM 的 prometheus 插件.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().DB

	factory, ok := dialectorFactories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("database type %s not built in", cfg.Type)
	}

	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("empty DSN for database type %s", cfg.Type)
	}

	db, err := gorm.Open(factory(dsn), &gorm.Config{
		Logger: logger.New(nlog.Logger(), logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		// 条件更新依赖把唯一键冲突翻译成 gorm.ErrDuplicatedKey
		TranslateError: true,
		PrepareStmt:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	client := &Client{DB: db}

	if configs.GetConfig().Metrics.Enabled {
		if err := client.RegisterGORMMetrics(cfg.Database); err != nil {
			return nil, err
		}
	}

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("database", cfg.Database).
		Msg("记录库连接成功")

	return client, nil
}

// GetDB 返回底层 GORM 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

const gormMetricsRefreshSeconds = 15

// RegisterGORMMetrics 把连接池指标挂到 GORM 的 prometheus 插件上，不开独立端口.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	err := c.Use(gormPrometheus.New(gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: gormMetricsRefreshSeconds,
		StartServer:     false,
	}))
	if err != nil {
		return fmt.Errorf("register gorm prometheus plugin: %w", err)
	}

	return nil
}
