package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultTargetFormat  = "dxt5" // 默认目标像素格式
	DefaultTargetLevels  = 1      // 默认 mip 层级数
	DefaultSourceWorkers = 2      // 源分析 worker 数
	DefaultCompileWorkers = 4     // 平台编译 worker 数
)

// PipelineConfig 资产构建管线配置.
type PipelineConfig struct {
	// Platforms 需要编译的目标平台列表，每个平台对应记录 status 中的一个阶段.
	Platforms []string `mapstructure:"platforms" rule:"min=1"`
	// DefaultFormat 源分析阶段写入 target.default.format 的初始值.
	DefaultFormat string `mapstructure:"default_format"`
	// DefaultLevels 源分析阶段写入 target.default.levels 的初始值.
	DefaultLevels int `mapstructure:"default_levels" rule:"min=1"`
	// SourceWorkers / CompileWorkers 各阶段并发 worker 数.
	SourceWorkers  int `mapstructure:"source_workers"  rule:"min=1,max=64"`
	CompileWorkers int `mapstructure:"compile_workers" rule:"min=1,max=64"`
	// SweepInterval 周期性补偿扫描的间隔；SweepAge 为记录未完成多久后才重新入队.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepAge      time.Duration `mapstructure:"sweep_age"`
}

// setDefaults 设置资产管线配置的默认值.
func (c *PipelineConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.platforms", []string{"osx_x64"})
	v.SetDefault("pipeline.default_format", DefaultTargetFormat)
	v.SetDefault("pipeline.default_levels", DefaultTargetLevels)
	v.SetDefault("pipeline.source_workers", DefaultSourceWorkers)
	v.SetDefault("pipeline.compile_workers", DefaultCompileWorkers)
	v.SetDefault("pipeline.sweep_interval", "5m")
	v.SetDefault("pipeline.sweep_age", "10m")
}
