package pipeline

import (
	types "ComicForge/pkg"
	"ComicForge/pkg/plugin"
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
)

// DecoratorRunner executes the enabled panel decorator plugins, in config
// order, against a finished panel.
type DecoratorRunner struct {
	registry *plugin.Registry
	configs  []types.PluginConfig
	logger   *zap.Logger
}

func NewDecoratorRunner(registry *plugin.Registry, configs []types.PluginConfig, logger *zap.Logger) *DecoratorRunner {
	return &DecoratorRunner{
		registry: registry,
		configs:  configs,
		logger:   logger,
	}
}

// Decorate applies all enabled decorators to the panel image in place.
func (d *DecoratorRunner) Decorate(ctx context.Context, img *image.RGBA, info plugin.PanelInfo) error {
	enabled := d.enabledConfigs()
	if len(enabled) == 0 {
		return nil
	}

	for _, cfg := range enabled {
		dec, exists := d.registry.Get(cfg.Name)
		if !exists {
			return fmt.Errorf("decorator %s not found in registry", cfg.Name)
		}

		if err := dec.Validate(cfg.Config); err != nil {
			return fmt.Errorf("decorator %s config validation failed: %w", cfg.Name, err)
		}

		d.logger.Debug("Applying decorator",
			zap.String("name", cfg.Name),
			zap.Int("panel", info.Index))

		if err := dec.Apply(ctx, img, info, cfg.Config); err != nil {
			return fmt.Errorf("decorator %s failed: %w", cfg.Name, err)
		}
	}
	return nil
}

func (d *DecoratorRunner) enabledConfigs() []types.PluginConfig {
	var enabled []types.PluginConfig
	for _, cfg := range d.configs {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled
}
