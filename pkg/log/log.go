// Package log 封装 zerolog，控制台输出始终开启，文件输出走 lumberjack 按大小轮转.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

var (
	base zerolog.Logger
	once sync.Once
)

// Init 按配置构建全局 logger，重复调用无效果.
func Init() {
	once.Do(setup)
}

// Logger 返回全局 logger，未初始化时先初始化.
func Logger() *zerolog.Logger {
	once.Do(setup)

	return &base
}

// Component 返回带组件名字段的子 logger，各子系统（coordinator/worker/sweep）用它区分来源.
func Component(name string) zerolog.Logger {
	once.Do(setup)

	return base.With().Str("component", name).Logger()
}

func setup() {
	cfg := configs.GetConfig()

	zerolog.SetGlobalLevel(parseLevel(cfg.Log.Level))

	sinks := []io.Writer{consoleSink()}
	if cfg.Log.EnableFile {
		sinks = append(sinks, fileSink(cfg.Log))
	}

	builder := zerolog.New(io.MultiWriter(sinks...)).With().
		Timestamp().
		Str("service", configs.AppName)

	if cfg.Server.Debug {
		builder = builder.Caller().Stack()
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	base = builder.Logger()
	log.Logger = base
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		fmt.Printf("unknown log level %q, using info\n", s)

		return zerolog.InfoLevel
	}

	return lvl
}

func consoleSink() io.Writer {
	return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
		w.TimeFormat = time.Kitchen
	})
}

func fileSink(cfg configs.LogConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// GinWriter 把 Gin 框架自身的文本日志行转成 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))

	switch w.level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		w.logger.Error().Msg(line)
	case zerolog.WarnLevel:
		w.logger.Warn().Msg(line)
	default:
		w.logger.Info().Msg(line)
	}

	return len(p), nil
}
