package pipeline

import (
	"image"
	"image/draw"
)

// toRGBA returns img as *image.RGBA, copying only when the underlying type
// differs.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// cloneRGBA returns a deep copy so callers can composite without mutating
// the source image.
func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// resizeRGBA scales src to width x height with bilinear interpolation.
func resizeRGBA(src *image.RGBA, width, height int) *image.RGBA {
	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	if srcW == width && srcH == height {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if srcW == 0 || srcH == 0 || width == 0 || height == 0 {
		return dst
	}

	xRatio := float64(srcW) / float64(width)
	yRatio := float64(srcH) / float64(height)

	for y := 0; y < height; y++ {
		srcY := (float64(y) + 0.5) * yRatio
		y0 := int(srcY - 0.5)
		if y0 < 0 {
			y0 = 0
		}
		y1 := y0 + 1
		if y1 >= srcH {
			y1 = srcH - 1
		}
		fy := srcY - 0.5 - float64(y0)
		if fy < 0 {
			fy = 0
		}

		for x := 0; x < width; x++ {
			srcX := (float64(x) + 0.5) * xRatio
			x0 := int(srcX - 0.5)
			if x0 < 0 {
				x0 = 0
			}
			x1 := x0 + 1
			if x1 >= srcW {
				x1 = srcW - 1
			}
			fx := srcX - 0.5 - float64(x0)
			if fx < 0 {
				fx = 0
			}

			di := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				p00 := float64(src.Pix[src.PixOffset(srcBounds.Min.X+x0, srcBounds.Min.Y+y0)+c])
				p10 := float64(src.Pix[src.PixOffset(srcBounds.Min.X+x1, srcBounds.Min.Y+y0)+c])
				p01 := float64(src.Pix[src.PixOffset(srcBounds.Min.X+x0, srcBounds.Min.Y+y1)+c])
				p11 := float64(src.Pix[src.PixOffset(srcBounds.Min.X+x1, srcBounds.Min.Y+y1)+c])

				top := p00 + (p10-p00)*fx
				bottom := p01 + (p11-p01)*fx
				v := top + (bottom-top)*fy
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				dst.Pix[di+c] = uint8(v + 0.5)
			}
		}
	}

	return dst
}
