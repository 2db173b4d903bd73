// Package assettype 管理按资产类型划分的构建处理器.
// 每种资产类型注册一个 Handler，提供该类型的源分析语义与默认目标元数据，
// 构建协调器按记录的 assetType 查找对应处理器.
package assettype

import (
	"fmt"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/compressor"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
)

// Handler 定义单一资产类型的构建行为.
type Handler interface {
	// Type 返回资产类型标签，如 "texture".
	Type() string
	// DefaultTarget 在源分析阶段首次写入时生成默认 target 元数据.
	// 返回的键是 target.default 下的叶子键（format/height/width/levels/semantic 等）.
	DefaultTarget(filename string, surface *compressor.Surface, cfg *configs.PipelineConfig) map[string]any
}

// handlers 资产类型到处理器的映射.
var handlers = make(map[string]Handler)

// RegisterHandler 注册资产类型处理器.
func RegisterHandler(h Handler) {
	handlers[h.Type()] = h
}

// GetHandler 查找指定类型的处理器.
func GetHandler(assetType string) (Handler, error) {
	h, ok := handlers[assetType]
	if !ok {
		return nil, fmt.Errorf("unsupported asset type %s: %w", assetType, pipeline.ErrNotFound)
	}

	return h, nil
}

// RegisteredTypes 返回已注册的资产类型列表.
func RegisteredTypes() []string {
	types := make([]string, 0, len(handlers))
	for t := range handlers {
		types = append(types, t)
	}

	return types
}
