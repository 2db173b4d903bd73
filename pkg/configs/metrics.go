package configs

import "github.com/spf13/viper"

// MetricsConfig Prometheus 指标配置.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	RuntimeMetrics bool   `mapstructure:"runtime_metrics"` // Go runtime 与进程指标
	Pprof          bool   `mapstructure:"pprof"`           // 暴露 /debug/pprof
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", AppName)
	v.SetDefault("metrics.service_version", AppVersion)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
}
