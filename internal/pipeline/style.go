package pipeline

import (
	types "ComicForge/pkg"
	"ComicForge/pkg/stylize"
	"context"
	"fmt"
	"image"
	"os"

	// Style references can arrive in any common raster format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
)

// Model is the opaque stylization model contract. The production
// implementation is the HTTP inference client in pkg/stylize.
type Model interface {
	Stylize(ctx context.Context, content, style image.Image) (image.Image, error)
}

// ModelFactory builds the model handle. This is the expensive step: it must
// run at most once per distinct style reference per engine instance.
type ModelFactory func(ctx context.Context) (Model, error)

// StyleContext is the cached state needed to stylize any frame: the model
// handle plus the preprocessed style reference.
type StyleContext struct {
	Model Model
	Style *image.RGBA
}

// Engine owns one StyleContext at a time. The context is built lazily on
// first use and dropped when the style reference path changes. An Engine is
// owned by a single pipeline run; it has no internal locking.
type Engine struct {
	factory   ModelFactory
	stylePath string
	inputSize int
	logger    *zap.Logger
	cached    *StyleContext
}

func NewEngine(cfg types.StyleConfig, logger *zap.Logger) *Engine {
	factory := func(ctx context.Context) (Model, error) {
		client := stylize.NewClient(cfg.Endpoint)
		if err := client.Warmup(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
	return NewEngineWithFactory(cfg.ImagePath, cfg.InputSize, factory, logger)
}

func NewEngineWithFactory(stylePath string, inputSize int, factory ModelFactory, logger *zap.Logger) *Engine {
	if inputSize <= 0 {
		inputSize = 256
	}
	return &Engine{
		factory:   factory,
		stylePath: stylePath,
		inputSize: inputSize,
		logger:    logger,
	}
}

// StylePath returns the currently configured style reference path.
func (e *Engine) StylePath() string {
	return e.stylePath
}

// SetStylePath switches the style reference and invalidates the cached
// context so the next Stylize call reloads.
func (e *Engine) SetStylePath(path string) {
	if path == e.stylePath {
		return
	}
	e.stylePath = path
	e.cached = nil
}

// Load builds and caches the StyleContext. Calling Load when a context is
// already cached is a no-op.
func (e *Engine) Load(ctx context.Context) (*StyleContext, error) {
	if e.cached != nil {
		return e.cached, nil
	}

	e.logger.Info("Loading style model and style image", zap.String("style", e.stylePath))

	f, err := os.Open(e.stylePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrStyleImageNotFound, e.stylePath, err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrStyleImageNotFound, e.stylePath, err)
	}

	model, err := e.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load style model: %w", err)
	}

	e.cached = &StyleContext{
		Model: model,
		Style: resizeRGBA(toRGBA(img), e.inputSize, e.inputSize),
	}
	return e.cached, nil
}

// Stylize applies the cached model to a frame, loading the context first if
// none is cached. The result always matches the frame's dimensions.
func (e *Engine) Stylize(ctx context.Context, frame *image.RGBA) (*image.RGBA, error) {
	sc, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}

	out, err := sc.Model.Stylize(ctx, frame, sc.Style)
	if err != nil {
		return nil, fmt.Errorf("stylization failed: %w", err)
	}

	result := toRGBA(out)
	bounds := frame.Bounds()
	if result.Bounds().Dx() != bounds.Dx() || result.Bounds().Dy() != bounds.Dy() {
		result = resizeRGBA(result, bounds.Dx(), bounds.Dy())
	}
	return result, nil
}
