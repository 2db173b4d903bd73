package configs

import "github.com/spf13/viper"

// TracingConfig OpenTelemetry 追踪配置，span 经 OTLP 导出.
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	ExporterType   string  `mapstructure:"exporter_type" rule:"oneof=otlp-http otlp-grpc"`
	Endpoint       string  `mapstructure:"endpoint"`
	SampleRate     float64 `mapstructure:"sample_rate"   rule:"min=0,max=1"`
}

func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", AppName)
	v.SetDefault("tracing.service_version", AppVersion)
	v.SetDefault("tracing.exporter_type", "otlp-http")
	v.SetDefault("tracing.endpoint", "http://localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)
}
