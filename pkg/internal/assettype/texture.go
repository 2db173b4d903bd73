package assettype

import (
	"path"
	"strings"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/compressor"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
)

// 纹理语义分类.
const (
	SemanticDiffuse   = "diffuse"
	SemanticNormalMap = "normalmap"
	SemanticSpecMap   = "specmap"
)

// TextureHandler 纹理类型的构建处理器.
type TextureHandler struct{}

// Type 实现 Handler.
func (h *TextureHandler) Type() string { return model.AssetTypeTexture }

// DefaultTarget 生成纹理的默认目标元数据.
// 初始目标尺寸与源一致，格式与层级来自管线配置，语义由文件名推断.
func (h *TextureHandler) DefaultTarget(filename string, surface *compressor.Surface, cfg *configs.PipelineConfig) map[string]any {
	format := cfg.DefaultFormat
	if format == "" {
		format = configs.DefaultTargetFormat
	}

	levels := cfg.DefaultLevels
	if levels < 1 {
		levels = configs.DefaultTargetLevels
	}

	return map[string]any{
		"format":   format,
		"height":   surface.Height,
		"width":    surface.Width,
		"levels":   levels,
		"semantic": SemanticFromFilename(filename),
	}
}

// SemanticFromFilename 由文件名后缀推断纹理语义.
// 比较前去掉扩展名并统一小写：以 "normal" 或 "_n" 结尾的视为法线贴图，
// 以 "specular" 或 "_s" 结尾的视为高光贴图，其余为漫反射.
func SemanticFromFilename(filename string) string {
	stem := strings.ToLower(filename)
	stem = strings.TrimSuffix(stem, path.Ext(stem))

	switch {
	case strings.HasSuffix(stem, "normal"), strings.HasSuffix(stem, "_n"):
		return SemanticNormalMap
	case strings.HasSuffix(stem, "specular"), strings.HasSuffix(stem, "_s"):
		return SemanticSpecMap
	default:
		return SemanticDiffuse
	}
}

func init() {
	RegisterHandler(&TextureHandler{})
}
