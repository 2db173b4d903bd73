// Package compressor 定义纹理编解码能力的接口.
// 真实的 DXT/BCn 压缩由外部编译器能力提供，此包只约定输入输出契约，
// 并附带一个基于标准库 image 的解码实现用于源分析与开发环境.
package compressor

import (
	"context"
	"fmt"
)

// Surface 是解码后的像素表面，Pixels 为 RGBA 顺序、每像素 4 字节.
type Surface struct {
	Width  int
	Height int
	Pixels []byte
}

// Target 描述一次编码的目标属性，来自记录的 target 元数据（平台覆盖后的有效值）.
type Target struct {
	Format   string // 目标像素格式，如 dxt1/dxt5
	Width    int
	Height   int
	Levels   int    // mip 层级数
	Semantic string // 语义分类：diffuse/normalmap/specmap
}

// Validate 检查目标属性是否完整可用.
func (t Target) Validate() error {
	if t.Format == "" {
		return fmt.Errorf("target format is empty")
	}

	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("invalid target dimensions %dx%d", t.Width, t.Height)
	}

	if t.Levels < 1 {
		return fmt.Errorf("invalid target levels %d", t.Levels)
	}

	return nil
}

// Compressor 编解码能力接口.
type Compressor interface {
	// Decode 将源字节解码为像素表面.
	Decode(ctx context.Context, data []byte) (*Surface, error)
	// Encode 按目标属性将表面编码为平台可用的字节流.
	Encode(ctx context.Context, surface *Surface, target Target) ([]byte, error)
}
