package pipeline

import (
	"ComicForge/pkg/plugin"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Toolchain is the external decode/encode utility precondition.
type Toolchain interface {
	Available() error
}

// FrameSource produces the sampled, resized frame sequence for a video.
type FrameSource interface {
	SampleFrames(ctx context.Context, videoPath string) ([]*image.RGBA, error)
}

// CaptionSource produces the ordered caption sequence for a video. It never
// fails; degraded results carry sentinel captions.
type CaptionSource interface {
	Transcribe(ctx context.Context, videoPath string) []string
}

// Stylizer owns the style context and applies the model to frames.
type Stylizer interface {
	Load(ctx context.Context) (*StyleContext, error)
	Stylize(ctx context.Context, frame *image.RGBA) (*image.RGBA, error)
	SetStylePath(path string)
}

// Progress is emitted after each pipeline step for job tracking.
type Progress struct {
	Stage   Stage
	Percent int
	Message string
}

// Generator sequences the comic pipeline for one job: captions and frames
// are produced independently, aligned by ordinal index, then each frame is
// stylized, composited and written as a numbered panel.
//
// A Generator instance must not run two Generate calls concurrently; the
// style context it owns is not synchronized. One job, one Generator.
type Generator struct {
	toolchain  Toolchain
	frames     FrameSource
	captions   CaptionSource
	styler     Stylizer
	bubbles    *Compositor
	decorators *DecoratorRunner
	logger     *zap.Logger

	// JobID tags decorator panel info; optional.
	JobID uuid.UUID
	// OnProgress, when set, receives stage updates; optional.
	OnProgress func(Progress)
}

func NewGenerator(toolchain Toolchain, frames FrameSource, captions CaptionSource, styler Stylizer, bubbles *Compositor, decorators *DecoratorRunner, logger *zap.Logger) *Generator {
	return &Generator{
		toolchain:  toolchain,
		frames:     frames,
		captions:   captions,
		styler:     styler,
		bubbles:    bubbles,
		decorators: decorators,
		logger:     logger,
	}
}

// SetStylePath switches the style reference for subsequent runs,
// invalidating the engine's cached context.
func (g *Generator) SetStylePath(path string) {
	g.styler.SetStylePath(path)
}

// Generate converts one video into an ordered set of panel files under
// outputDir and returns their paths in panel order. A video that samples
// zero frames yields an empty list and no error. Captions shorter than the
// frame sequence are clamped: frames past the caption count get an empty
// bubble. Anchors alternate top-right (even index) and bottom-left (odd).
func (g *Generator) Generate(ctx context.Context, videoPath, outputDir string) ([]string, error) {
	if err := g.toolchain.Available(); err != nil {
		return nil, stageErr(StageToolchain, fmt.Errorf("%w: %v", ErrToolchainMissing, err))
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, stageErr(StageWrite, fmt.Errorf("failed to create output directory: %w", err))
	}

	g.emit(StageTranscribe, 10, "Transcribing audio")
	captions := g.captions.Transcribe(ctx, videoPath)

	g.emit(StageFrames, 30, "Sampling frames")
	frames, err := g.frames.SampleFrames(ctx, videoPath)
	if err != nil {
		return nil, stageErr(StageFrames, err)
	}

	g.emit(StageStyleLoad, 40, "Loading style model")
	if _, err := g.styler.Load(ctx); err != nil {
		return nil, stageErr(StageStyleLoad, err)
	}

	paths := make([]string, 0, len(frames))
	for i, frame := range frames {
		caption := ""
		if i < len(captions) {
			caption = captions[i]
		}
		anchor := AnchorTopRight
		if i%2 == 1 {
			anchor = AnchorBottomLeft
		}

		styled, err := g.styler.Stylize(ctx, frame)
		if err != nil {
			return nil, frameErr(StageStylize, i, err)
		}

		panel := g.bubbles.Draw(styled, caption, anchor)

		if g.decorators != nil {
			info := plugin.PanelInfo{JobID: g.JobID, Index: i, Total: len(frames), Caption: caption}
			if err := g.decorators.Decorate(ctx, panel, info); err != nil {
				return nil, frameErr(StageComposite, i, err)
			}
		}

		path := filepath.Join(outputDir, fmt.Sprintf("panel_%03d.jpg", i))
		if err := writeJPEG(path, panel); err != nil {
			return nil, frameErr(StageWrite, i, err)
		}
		paths = append(paths, path)

		if len(frames) > 0 {
			pct := 40 + (i+1)*55/len(frames)
			g.emit(StageWrite, pct, fmt.Sprintf("Panel %d/%d written", i+1, len(frames)))
		}
	}

	g.logger.Info("Comic generation completed",
		zap.String("video", videoPath),
		zap.String("output_dir", outputDir),
		zap.Int("panels", len(paths)),
		zap.Int("captions", len(captions)))

	return paths, nil
}

func (g *Generator) emit(stage Stage, percent int, message string) {
	if g.OnProgress != nil {
		g.OnProgress(Progress{Stage: stage, Percent: percent, Message: message})
	}
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create panel file: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode panel: %w", err)
	}
	return f.Close()
}
