package compressor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x7f, A: 0xff})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	return buf.Bytes()
}

func TestDecodeReportsDimensions(t *testing.T) {
	c := NewStdImage()

	surface, err := c.Decode(context.Background(), encodePNG(t, 16, 8))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if surface.Width != 16 || surface.Height != 8 {
		t.Errorf("unexpected dimensions %dx%d", surface.Width, surface.Height)
	}

	if len(surface.Pixels) != 16*8*4 {
		t.Errorf("unexpected pixel buffer size %d", len(surface.Pixels))
	}
}

func TestDecodeGarbageIsDecodeFailure(t *testing.T) {
	c := NewStdImage()

	_, err := c.Decode(context.Background(), []byte("not an image"))
	if !errors.Is(err, pipeline.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestEncodeContainerHeader(t *testing.T) {
	c := NewStdImage()

	surface, err := c.Decode(context.Background(), encodePNG(t, 8, 8))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out, err := c.Encode(context.Background(), surface, Target{
		Format: "dxt5",
		Width:  4,
		Height: 4,
		Levels: 1,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if string(out[:4]) != surfaceMagic {
		t.Errorf("missing magic, got %q", out[:4])
	}

	// magic(4) + version(1) + format(1) + header(10) + 4x4 RGBA
	if want := 4 + 1 + 1 + 10 + 4*4*4; len(out) != want {
		t.Errorf("unexpected output size %d, want %d", len(out), want)
	}
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	c := NewStdImage()

	_, err := c.Encode(context.Background(), &Surface{Width: 1, Height: 1, Pixels: make([]byte, 4)}, Target{
		Format: "astc",
		Width:  1,
		Height: 1,
		Levels: 1,
	})
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
