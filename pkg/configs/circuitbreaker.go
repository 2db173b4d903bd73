package configs

import "github.com/spf13/viper"

// CircuitBreakerConfig 熔断配置，存储后端故障时快速失败而不是拖垮编辑器请求.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// FailureRate 窗口内失败比例阈值，超过即打开熔断
	FailureRate float64 `mapstructure:"failure_rate"         rule:"min=0,max=1"`
	// MinRequests 窗口内少于该数不做判定
	MinRequests uint32 `mapstructure:"min_requests"         rule:"min=1"`
	// IntervalSeconds 统计窗口周期
	IntervalSeconds int `mapstructure:"interval_seconds"     rule:"min=1"`
	// TimeoutSeconds 打开状态持续时间，到期自动半开
	TimeoutSeconds int `mapstructure:"timeout_seconds"      rule:"min=1"`
	// MaxRequestsInHalf 半开状态放行的并发请求数
	MaxRequestsInHalf uint32 `mapstructure:"max_requests_in_half" rule:"min=1"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_requests_in_half", 5)
}
