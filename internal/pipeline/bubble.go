package pipeline

import (
	types "ComicForge/pkg"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Anchor names one of the four corner positions a speech bubble can occupy.
type Anchor string

const (
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

// ParseAnchor maps a position name to an Anchor; unrecognized values fall
// back to top-left.
func ParseAnchor(s string) Anchor {
	switch Anchor(s) {
	case AnchorTopRight, AnchorBottomLeft, AnchorBottomRight, AnchorTopLeft:
		return Anchor(s)
	default:
		return AnchorTopLeft
	}
}

// Compositor draws a semi-transparent rounded speech bubble with wrapped
// caption text onto a panel. The bubble is sized relative to the panel: 50%
// of its width, 20% of its height.
type Compositor struct {
	maxChars    int
	padding     int
	radius      int
	textPadding int
	fillAlpha   uint8
	face        font.Face
}

func NewCompositor(cfg types.BubbleConfig) *Compositor {
	c := &Compositor{
		maxChars:    cfg.MaxChars,
		padding:     cfg.Padding,
		radius:      cfg.CornerRadius,
		textPadding: cfg.TextPadding,
		fillAlpha:   uint8(cfg.FillAlpha),
		face:        basicfont.Face7x13,
	}
	if c.maxChars <= 0 {
		c.maxChars = 100
	}
	if c.padding <= 0 {
		c.padding = 10
	}
	if c.radius <= 0 {
		c.radius = 10
	}
	if c.textPadding <= 0 {
		c.textPadding = 15
	}
	if cfg.FillAlpha <= 0 || cfg.FillAlpha > 255 {
		c.fillAlpha = 200
	}
	return c
}

// TruncateText bounds caption length before layout, appending an ellipsis
// marker. This is a character bound, not a pixel-accurate fit.
func TruncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// Draw composites the bubble and caption onto a copy of src; src itself is
// never mutated.
func (c *Compositor) Draw(src *image.RGBA, text string, anchor Anchor) *image.RGBA {
	out := cloneRGBA(src)
	rect := c.BubbleRect(src.Bounds(), anchor)

	c.paintBubble(out, rect)

	text = TruncateText(text, c.maxChars)
	if strings.TrimSpace(text) != "" {
		c.paintText(out, rect, text)
	}
	return out
}

// BubbleRect computes the bubble rectangle for a panel of the given bounds
// at the given anchor.
func (c *Compositor) BubbleRect(bounds image.Rectangle, anchor Anchor) image.Rectangle {
	imgW, imgH := bounds.Dx(), bounds.Dy()
	bubbleW := imgW / 2
	bubbleH := imgH / 5

	var x, y int
	switch anchor {
	case AnchorTopRight:
		x, y = imgW-bubbleW-c.padding, c.padding
	case AnchorBottomLeft:
		x, y = c.padding, imgH-bubbleH-c.padding
	case AnchorBottomRight:
		x, y = imgW-bubbleW-c.padding, imgH-bubbleH-c.padding
	default:
		x, y = c.padding, c.padding
	}
	return image.Rect(x, y, x+bubbleW, y+bubbleH).Add(bounds.Min)
}

// paintBubble alpha-blends the rounded white fill and traces a black
// outline along the boundary.
func (c *Compositor) paintBubble(img *image.RGBA, rect image.Rectangle) {
	rect = rect.Intersect(img.Bounds())
	outline := color.RGBA{0, 0, 0, 255}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !insideRounded(x, y, rect, c.radius) {
				continue
			}
			onEdge := !insideRounded(x-1, y, rect, c.radius) ||
				!insideRounded(x+1, y, rect, c.radius) ||
				!insideRounded(x, y-1, rect, c.radius) ||
				!insideRounded(x, y+1, rect, c.radius)
			if onEdge {
				img.SetRGBA(x, y, outline)
			} else {
				blendWhite(img, x, y, c.fillAlpha)
			}
		}
	}
}

// insideRounded reports whether the pixel lies within the rounded
// rectangle, treating each corner as a quarter circle of the given radius.
func insideRounded(x, y int, rect image.Rectangle, radius int) bool {
	if x < rect.Min.X || x >= rect.Max.X || y < rect.Min.Y || y >= rect.Max.Y {
		return false
	}

	cx, cy := x, y
	switch {
	case x < rect.Min.X+radius && y < rect.Min.Y+radius:
		cx, cy = rect.Min.X+radius, rect.Min.Y+radius
	case x >= rect.Max.X-radius && y < rect.Min.Y+radius:
		cx, cy = rect.Max.X-radius-1, rect.Min.Y+radius
	case x < rect.Min.X+radius && y >= rect.Max.Y-radius:
		cx, cy = rect.Min.X+radius, rect.Max.Y-radius-1
	case x >= rect.Max.X-radius && y >= rect.Max.Y-radius:
		cx, cy = rect.Max.X-radius-1, rect.Max.Y-radius-1
	default:
		return true
	}

	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}

func blendWhite(img *image.RGBA, x, y int, alpha uint8) {
	i := img.PixOffset(x, y)
	a := uint32(alpha)
	for c := 0; c < 3; c++ {
		old := uint32(img.Pix[i+c])
		img.Pix[i+c] = uint8((255*a + old*(255-a)) / 255)
	}
	img.Pix[i+3] = 255
}

// paintText renders the caption inside the bubble, word-wrapped to the
// bubble's inner width. Lines past the bubble's height are still drawn; the
// character truncation above is the only overflow bound.
func (c *Compositor) paintText(img *image.RGBA, rect image.Rectangle, text string) {
	maxWidth := rect.Dx() - 2*c.textPadding
	if maxWidth <= 0 {
		return
	}

	metrics := c.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: c.face,
	}

	y := rect.Min.Y + c.textPadding + metrics.Ascent.Ceil()
	for _, line := range wrapText(text, c.face, maxWidth) {
		drawer.Dot = fixed.P(rect.Min.X+c.textPadding, y)
		drawer.DrawString(line)
		y += lineHeight
	}
}

// wrapText greedily packs words into lines no wider than maxWidth pixels.
// A single word wider than the limit gets a line of its own.
func wrapText(text string, face font.Face, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
