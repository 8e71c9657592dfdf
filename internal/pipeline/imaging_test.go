package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRGBAPassthrough(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, src, toRGBA(src))
}

func TestToRGBAConverts(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420)
	out := toRGBA(src)
	assert.Equal(t, 8, out.Bounds().Dx())
	assert.Equal(t, 8, out.Bounds().Dy())
}

func TestCloneRGBAIsIndependent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(1, 1, color.RGBA{10, 20, 30, 255})

	dst := cloneRGBA(src)
	require.Equal(t, src.Pix, dst.Pix)

	dst.SetRGBA(1, 1, color.RGBA{99, 99, 99, 255})
	assert.NotEqual(t, src.Pix, dst.Pix)
}

func TestResizeRGBASameSizeReturnsSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 9))
	assert.Same(t, src, resizeRGBA(src, 16, 9))
}

func TestResizeRGBADimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	out := resizeRGBA(src, 256, 128)
	assert.Equal(t, 256, out.Bounds().Dx())
	assert.Equal(t, 128, out.Bounds().Dy())
}

func TestResizeRGBAPreservesUniformColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 120, 60, 30, 255
	}

	out := resizeRGBA(src, 25, 7)
	for y := 0; y < 7; y++ {
		for x := 0; x < 25; x++ {
			i := out.PixOffset(x, y)
			assert.Equal(t, uint8(120), out.Pix[i])
			assert.Equal(t, uint8(60), out.Pix[i+1])
			assert.Equal(t, uint8(30), out.Pix[i+2])
			assert.Equal(t, uint8(255), out.Pix[i+3])
		}
	}
}

func TestResizeRGBAOffsetSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 15, 15))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			src.SetRGBA(x, y, color.RGBA{200, 0, 0, 255})
		}
	}

	out := resizeRGBA(src, 4, 4)
	i := out.PixOffset(2, 2)
	assert.Equal(t, uint8(200), out.Pix[i])
}
