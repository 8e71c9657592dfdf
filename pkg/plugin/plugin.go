package plugin

import (
	"context"
	"image"

	"github.com/google/uuid"
)

// Decorator defines the interface panel post-processing plugins implement.
// Decorators run after stylization and bubble compositing, drawing directly
// onto the panel image before it is written to disk.
type Decorator interface {
	// Name returns the unique plugin identifier
	Name() string

	// Apply draws the decoration onto the panel image in place
	Apply(ctx context.Context, img *image.RGBA, panel PanelInfo, config map[string]interface{}) error

	// Validate checks if the plugin configuration is valid
	Validate(config map[string]interface{}) error
}

// PanelInfo carries per-panel context into a decorator.
type PanelInfo struct {
	JobID   uuid.UUID // Owning job, for logging/output correlation
	Index   int       // Zero-based panel ordinal
	Total   int       // Total panels in the job
	Caption string    // Caption composited onto this panel
}
