package configs

import "github.com/spf13/viper"

const (
	DefaultLogFilePath   = "logs/assetsrv.log"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 7
	DefaultLogMaxAge     = 28 // 天
	DefaultLogLevel      = "info"
)

// LogConfig 日志配置，文件输出关闭时只写控制台.
type LogConfig struct {
	EnableFile bool   `mapstructure:"enable_file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size_mb"  rule:"min=1"`
	MaxBackups int    `mapstructure:"max_backups"  rule:"min=0"`
	MaxAge     int    `mapstructure:"max_age_days" rule:"min=0"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"        rule:"oneof=trace debug info warn error fatal panic"`
}

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.enable_file", false)
	v.SetDefault("log.file_path", DefaultLogFilePath)
	v.SetDefault("log.max_size_mb", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age_days", DefaultLogMaxAge)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.level", DefaultLogLevel)
}
