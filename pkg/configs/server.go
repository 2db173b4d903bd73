package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort         = 5000
	DefaultHost         = "0.0.0.0"
	DefaultReloadConfig = true
	DefaultDebug        = false
	DefaultTimeout      = 30 // 秒
)

// ServerConfig HTTP 服务配置.
type ServerConfig struct {
	Port         int    `mapstructure:"port"          rule:"min=1,max=65535"`
	Host         string `mapstructure:"host"          rule:"ip"`
	ReloadConfig bool   `mapstructure:"reload_config"`
	Debug        bool   `mapstructure:"debug"`
	Timeout      int    `mapstructure:"timeout"       rule:"min=1,max=300"`
}

// Addr 返回监听地址 host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetTimeoutDuration 请求超时时间.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
}
