package configs

import "github.com/spf13/viper"

// RateLimitConfig 限流配置，保护批量上传接口不被编辑器批处理压垮.
// Key 取 global / ip / header:Header-Name，决定 token bucket 的粒度.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"min=0"`
	Burst   int     `mapstructure:"burst" rule:"min=0"`
	Key     string  `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.key", "ip")
}
