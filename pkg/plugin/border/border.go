package border

import (
	"ComicForge/pkg/plugin"
	"context"
	"fmt"
	"image"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// BorderPlugin implements the Decorator interface, framing each panel with
// an inset rectangle the way printed comic panels are ruled.
type BorderPlugin struct {
	logger *zap.Logger
}

// NewBorderPlugin creates a new border plugin instance
func NewBorderPlugin(logger *zap.Logger) *BorderPlugin {
	return &BorderPlugin{logger: logger}
}

// Name returns the unique identifier for this plugin
func (p *BorderPlugin) Name() string {
	return "border"
}

// Validate checks if the plugin configuration is valid
func (p *BorderPlugin) Validate(config map[string]interface{}) error {
	var bc BorderConfig
	if err := mapstructure.Decode(config, &bc); err != nil {
		return fmt.Errorf("failed to decode border config: %w", err)
	}

	bc.SetDefaults()
	return bc.Validate()
}

// Apply draws the border frame onto the panel
func (p *BorderPlugin) Apply(ctx context.Context, img *image.RGBA, panel plugin.PanelInfo, config map[string]interface{}) error {
	var bc BorderConfig
	if err := mapstructure.Decode(config, &bc); err != nil {
		return fmt.Errorf("failed to decode border config: %w", err)
	}
	bc.SetDefaults()
	if err := bc.Validate(); err != nil {
		return fmt.Errorf("invalid border config: %w", err)
	}

	bounds := img.Bounds()
	frame := image.Rect(
		bounds.Min.X+bc.Inset,
		bounds.Min.Y+bc.Inset,
		bounds.Max.X-bc.Inset,
		bounds.Max.Y-bc.Inset,
	)
	if frame.Empty() {
		p.logger.Warn("Panel too small for border inset, skipping",
			zap.Int("panel", panel.Index),
			zap.Int("inset", bc.Inset))
		return nil
	}

	c := bc.RGBA()
	for w := 0; w < bc.Width; w++ {
		r := frame.Inset(w)
		if r.Empty() {
			break
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y, c)
			img.SetRGBA(x, r.Max.Y-1, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X, y, c)
			img.SetRGBA(r.Max.X-1, y, c)
		}
	}

	return nil
}
