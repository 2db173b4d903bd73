package compressor

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"

	// 注册标准库支持的源图格式.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
)

// 编码产物的容器头魔数与版本.
const (
	surfaceMagic   = "BTEX"
	surfaceVersion = uint8(1)
)

// formatIDs 已知目标格式到容器格式号的映射.
// 真实的块压缩由外部编译器完成，这里只负责容器化与降采样.
var formatIDs = map[string]uint8{
	"rgba8": 0,
	"dxt1":  1,
	"dxt5":  5,
}

// StdImage 基于标准库 image 的 Compressor 实现.
type StdImage struct{}

// NewStdImage 创建标准库实现.
func NewStdImage() *StdImage { return &StdImage{} }

// Decode 解码 PNG/JPEG/GIF 源字节为 RGBA 表面.
func (s *StdImage) Decode(ctx context.Context, data []byte) (*Surface, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDecodeFailure, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return &Surface{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}, nil
}

// Encode 将表面按目标属性容器化.
// 如目标尺寸与源不一致，先做最近邻降采样；格式号写入容器头，
// 供下游的块压缩工具链或运行时加载器识别.
func (s *StdImage) Encode(ctx context.Context, surface *Surface, target Target) ([]byte, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrConfiguration, err)
	}

	formatID, ok := formatIDs[target.Format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown target format %q", pipeline.ErrConfiguration, target.Format)
	}

	pixels := surface.Pixels
	if target.Width != surface.Width || target.Height != surface.Height {
		pixels = resampleNearest(surface, target.Width, target.Height)
	}

	var buf bytes.Buffer

	buf.WriteString(surfaceMagic)
	buf.WriteByte(surfaceVersion)
	buf.WriteByte(formatID)

	hdr := make([]byte, 10)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(target.Width))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(target.Height))
	binary.LittleEndian.PutUint16(hdr[8:10], uint16(target.Levels))
	buf.Write(hdr)

	buf.Write(pixels)

	return buf.Bytes(), nil
}

// resampleNearest 最近邻缩放到目标尺寸.
func resampleNearest(src *Surface, width, height int) []byte {
	out := make([]byte, width*height*4)

	for y := 0; y < height; y++ {
		sy := y * src.Height / height
		for x := 0; x < width; x++ {
			sx := x * src.Width / width
			si := (sy*src.Width + sx) * 4
			di := (y*width + x) * 4
			copy(out[di:di+4], src.Pixels[si:si+4])
		}
	}

	return out
}
