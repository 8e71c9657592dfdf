package border

import (
	"fmt"
	"image/color"
)

// BorderConfig holds the configuration for the border plugin
type BorderConfig struct {
	Width int    `json:"width" mapstructure:"width"`
	Inset int    `json:"inset" mapstructure:"inset"`
	Color string `json:"color" mapstructure:"color"`
}

// SetDefaults sets default values for missing configuration
func (c *BorderConfig) SetDefaults() {
	if c.Width == 0 {
		c.Width = 2
	}
	if c.Inset == 0 {
		c.Inset = 10
	}
	if c.Color == "" {
		c.Color = "black"
	}
}

// Validate checks if the configuration is valid
func (c *BorderConfig) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be greater than 0, got: %d", c.Width)
	}
	if c.Inset < 0 {
		return fmt.Errorf("inset must be greater than or equal to 0, got: %d", c.Inset)
	}
	if _, ok := namedColors[c.Color]; !ok {
		return fmt.Errorf("unsupported color: %s", c.Color)
	}
	return nil
}

// RGBA resolves the configured color name.
func (c *BorderConfig) RGBA() color.RGBA {
	return namedColors[c.Color]
}

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {200, 30, 30, 255},
	"gray":  {120, 120, 120, 255},
}
