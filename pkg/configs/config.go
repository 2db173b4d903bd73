// Package configs 管理服务配置：资产记录库、对象存储、作业队列、会话存储与构建管线.
// 支持 YAML/JSON/TOML/dotenv 格式、BLINK_ 前缀的环境变量覆盖以及热重载.
package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/gamepoet/blink-assetsrv/pkg/rule"
)

const (
	// AppName 服务名，用于日志、指标与 MQ 客户端标识.
	AppName = "assetsrv"
	// AppVersion 服务版本.
	AppVersion = "0.3.0"
)

// AppConfig 全量配置树.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	S3       S3Config       `mapstructure:"s3"`
	MQ       MQConfig       `mapstructure:"mq"`
	KV       KVConfig       `mapstructure:"kv"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`

	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// defaulter 各配置段向 viper 注册默认值.
type defaulter interface {
	setDefaults(v *viper.Viper)
}

var (
	globalConfig AppConfig
	appViper     *viper.Viper
)

// InitConfig 加载配置；path 可以是配置文件，也可以是包含 config.<ext> 的目录.
// 缺失配置文件时用默认值起服，解析后按 rule 标签做一次整体校验.
func InitConfig(path string) error {
	appViper = viper.New()

	for _, d := range []defaulter{
		&ServerConfig{}, &DBConfig{}, &S3Config{}, &MQConfig{}, &KVConfig{},
		&PipelineConfig{}, &LogConfig{}, &MetricsConfig{}, &TracingConfig{},
		&RateLimitConfig{}, &CircuitBreakerConfig{},
	} {
		d.setDefaults(appViper)
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			candidate := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(candidate); err == nil {
				appViper.SetConfigFile(candidate)
				break
			}
		}
	}

	appViper.SetEnvPrefix("BLINK")
	appViper.AutomaticEnv()

	if err := appViper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(&globalConfig); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if globalConfig.Server.ReloadConfig {
		watchConfig(appViper)
	}

	return nil
}

// watchConfig 热重载；重载失败时保留旧配置继续跑.
func watchConfig(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("config file changed:", e.Name)

		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			fmt.Printf("config reload failed: %v\n", err)
			return
		}

		if err := rule.ValidateStruct(&next); err != nil {
			fmt.Printf("config reload rejected: %v\n", err)
			return
		}

		globalConfig = next
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回底层 viper 实例，CLI 的 config 子命令用它查看生效值.
func GetViper() *viper.Viper {
	return appViper
}
