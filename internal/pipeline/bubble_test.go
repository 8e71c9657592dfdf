package pipeline

import (
	types "ComicForge/pkg"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short text unchanged", "Hello there.", 100, "Hello there."},
		{"exact limit unchanged", strings.Repeat("a", 100), 100, strings.Repeat("a", 100)},
		{"over limit truncated", strings.Repeat("a", 101), 100, strings.Repeat("a", 100) + "..."},
		{"empty text", "", 100, ""},
		{"multibyte runes counted as characters", strings.Repeat("é", 101), 100, strings.Repeat("é", 100) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.text, tt.max))
		})
	}
}

func TestParseAnchor(t *testing.T) {
	assert.Equal(t, AnchorTopRight, ParseAnchor("top-right"))
	assert.Equal(t, AnchorBottomLeft, ParseAnchor("bottom-left"))
	assert.Equal(t, AnchorBottomRight, ParseAnchor("bottom-right"))
	assert.Equal(t, AnchorTopLeft, ParseAnchor("top-left"))
	assert.Equal(t, AnchorTopLeft, ParseAnchor("somewhere-else"))
	assert.Equal(t, AnchorTopLeft, ParseAnchor(""))
}

func TestBubbleRectAnchors(t *testing.T) {
	c := NewCompositor(types.BubbleConfig{})
	bounds := image.Rect(0, 0, 512, 288)

	// Bubble is half the panel width, a fifth of its height, inset by the
	// padding from the anchored corner.
	tests := []struct {
		anchor Anchor
		want   image.Rectangle
	}{
		{AnchorTopLeft, image.Rect(10, 10, 10+256, 10+57)},
		{AnchorTopRight, image.Rect(512-256-10, 10, 512-10, 10+57)},
		{AnchorBottomLeft, image.Rect(10, 288-57-10, 10+256, 288-10)},
		{AnchorBottomRight, image.Rect(512-256-10, 288-57-10, 512-10, 288-10)},
	}

	for _, tt := range tests {
		t.Run(string(tt.anchor), func(t *testing.T) {
			assert.Equal(t, tt.want, c.BubbleRect(bounds, tt.anchor))
		})
	}
}

func TestBubbleRectRespectsBoundsOffset(t *testing.T) {
	c := NewCompositor(types.BubbleConfig{})
	bounds := image.Rect(100, 50, 612, 338)

	rect := c.BubbleRect(bounds, AnchorTopLeft)
	assert.Equal(t, image.Rect(110, 60, 110+256, 60+57), rect)
}

func TestDrawDoesNotMutateSource(t *testing.T) {
	c := NewCompositor(types.BubbleConfig{})
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for i := range src.Pix {
		src.Pix[i] = 40
	}
	before := append([]uint8(nil), src.Pix...)

	out := c.Draw(src, "Hello there.", AnchorTopRight)

	require.NotSame(t, src, out)
	assert.Equal(t, before, src.Pix)
}

func TestDrawPaintsBubbleAtAnchor(t *testing.T) {
	c := NewCompositor(types.BubbleConfig{})
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))

	out := c.Draw(src, "Hi.", AnchorBottomLeft)

	rect := c.BubbleRect(src.Bounds(), AnchorBottomLeft)
	center := image.Pt((rect.Min.X+rect.Max.X)/2, (rect.Min.Y+rect.Max.Y)/2)

	// Center of the bubble is blended towards white over a black panel.
	r, g, b, _ := out.At(center.X, center.Y).RGBA()
	assert.Greater(t, r>>8, uint32(150))
	assert.Greater(t, g>>8, uint32(150))
	assert.Greater(t, b>>8, uint32(150))

	// Opposite corner stays untouched.
	r, g, b, _ = out.At(5, 5).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestDrawEmptyCaptionStillDrawsBubble(t *testing.T) {
	c := NewCompositor(types.BubbleConfig{})
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))

	out := c.Draw(src, "   ", AnchorTopLeft)

	rect := c.BubbleRect(src.Bounds(), AnchorTopLeft)
	r, _, _, _ := out.At((rect.Min.X+rect.Max.X)/2, (rect.Min.Y+rect.Max.Y)/2).RGBA()
	assert.Greater(t, r>>8, uint32(150))
}

func TestWrapTextKeepsLinesWithinWidth(t *testing.T) {
	face := basicfont.Face7x13
	maxWidth := 100

	lines := wrapText("the quick brown fox jumps over the lazy dog", face, maxWidth)

	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, font.MeasureString(face, line).Ceil(), maxWidth, "line %q", line)
	}
	assert.Equal(t, "the quick brown fox jumps over the lazy dog",
		strings.Join(lines, " "), "no words lost or reordered")
}

func TestWrapTextSingleOversizedWord(t *testing.T) {
	face := basicfont.Face7x13
	lines := wrapText("supercalifragilisticexpialidocious", face, 20)
	assert.Equal(t, []string{"supercalifragilisticexpialidocious"}, lines)
}

func TestWrapTextEmpty(t *testing.T) {
	assert.Nil(t, wrapText("  ", basicfont.Face7x13, 100))
}

func TestInsideRoundedCorners(t *testing.T) {
	rect := image.Rect(0, 0, 100, 50)
	radius := 10

	// The very corner pixel lies outside the quarter circle.
	assert.False(t, insideRounded(0, 0, rect, radius))
	assert.False(t, insideRounded(99, 0, rect, radius))
	assert.False(t, insideRounded(0, 49, rect, radius))
	assert.False(t, insideRounded(99, 49, rect, radius))

	// Edge midpoints and the center are inside.
	assert.True(t, insideRounded(50, 0, rect, radius))
	assert.True(t, insideRounded(0, 25, rect, radius))
	assert.True(t, insideRounded(50, 25, rect, radius))

	// Outside the rectangle entirely.
	assert.False(t, insideRounded(-1, 25, rect, radius))
	assert.False(t, insideRounded(100, 25, rect, radius))
}

func TestNewCompositorDefaults(t *testing.T) {
	c := NewCompositor(types.BubbleConfig{})
	assert.Equal(t, 100, c.maxChars)
	assert.Equal(t, 10, c.padding)
	assert.Equal(t, 10, c.radius)
	assert.Equal(t, 15, c.textPadding)
	assert.Equal(t, uint8(200), c.fillAlpha)
}
