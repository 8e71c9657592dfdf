package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var mockDialogue = []string{
	"This is a mock speech bubble.",
	"Hello there! This is just a placeholder.",
	"Comic generation would normally happen here!",
	"In real mode, this would be real dialogue from your video!",
	"Speech bubbles will contain transcribed audio.",
}

// GenerateMockPanels writes placeholder panels so the upload flow keeps
// working when the real pipeline is unavailable. Panels get a random pastel
// background, a ruled border and a canned dialogue bubble.
func GenerateMockPanels(outputDir string, count, width, height int, bubbles *Compositor) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if width <= 0 || height <= 0 {
		width, height = 512, 288
	}

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		bg := color.RGBA{pastel(), pastel(), pastel(), 255}
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = bg.R
			img.Pix[p+1] = bg.G
			img.Pix[p+2] = bg.B
			img.Pix[p+3] = 255
		}

		drawFrame(img, 10, 2)
		drawLabel(img, 50, 50, fmt.Sprintf("Mock Comic Panel %d", i+1))

		anchor := AnchorTopRight
		if i%2 == 1 {
			anchor = AnchorBottomLeft
		}
		panel := bubbles.Draw(img, mockDialogue[rand.Intn(len(mockDialogue))], anchor)

		path := filepath.Join(outputDir, fmt.Sprintf("panel_%03d.jpg", i))
		if err := writeJPEG(path, panel); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func pastel() uint8 {
	return uint8(200 + rand.Intn(56))
}

func drawFrame(img *image.RGBA, inset, width int) {
	black := color.RGBA{0, 0, 0, 255}
	bounds := img.Bounds()
	for w := 0; w < width; w++ {
		r := bounds.Inset(inset + w)
		if r.Empty() {
			return
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y, black)
			img.SetRGBA(x, r.Max.Y-1, black)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X, y, black)
			img.SetRGBA(r.Max.X-1, y, black)
		}
	}
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}
