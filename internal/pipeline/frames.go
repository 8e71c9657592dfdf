package pipeline

import (
	types "ComicForge/pkg"
	"ComicForge/pkg/ffmpeg"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Sampler decodes a video through ffmpeg and keeps every Nth frame, scaled
// to the configured panel size.
type Sampler struct {
	ffmpeg   *ffmpeg.FFmpeg
	interval int
	width    int
	height   int
	logger   *zap.Logger
}

func NewSampler(ff *ffmpeg.FFmpeg, cfg types.PipelineConfig, logger *zap.Logger) *Sampler {
	return &Sampler{
		ffmpeg:   ff,
		interval: cfg.FrameInterval,
		width:    cfg.TargetWidth,
		height:   cfg.TargetHeight,
		logger:   logger,
	}
}

// SampleFrames decodes inputFile in presentation order and retains frames
// where counter % interval == 0. A video with zero decodable frames yields
// an empty slice, not an error; a source that cannot be decoded at all
// yields ErrVideoOpen.
func (s *Sampler) SampleFrames(ctx context.Context, inputFile string) ([]*image.RGBA, error) {
	stream, err := s.ffmpeg.StreamFrames(ctx, inputFile, s.width, s.height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoOpen, err)
	}

	frames, decodeErr := s.decodeEveryNth(stream)
	closeErr := stream.Close()

	if len(frames) == 0 && (decodeErr != nil || closeErr != nil) {
		detail := firstNonNil(decodeErr, closeErr)
		return nil, fmt.Errorf("%w: %v (ffmpeg: %s)", ErrVideoOpen, detail, stderrTail(stream.Stderr))
	}
	if decodeErr != nil || closeErr != nil {
		// Decoder stopped early; keep what we have, like a truncated read.
		s.logger.Warn("Frame decode ended early",
			zap.String("input", inputFile),
			zap.Int("frames", len(frames)),
			zap.NamedError("decode", decodeErr),
			zap.NamedError("close", closeErr))
	}

	s.logger.Info("Sampled frames",
		zap.String("input", inputFile),
		zap.Int("count", len(frames)),
		zap.Int("interval", s.interval),
		zap.Int("width", s.width),
		zap.Int("height", s.height))

	return frames, nil
}

// decodeEveryNth reads concatenated JPEGs off the MJPEG pipe, counting every
// decoded frame and keeping those on the interval boundary.
func (s *Sampler) decodeEveryNth(r io.Reader) ([]*image.RGBA, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var frames []*image.RGBA
	count := 0

	for {
		chunk, err := nextJPEG(reader)
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}

		if count%s.interval == 0 {
			img, err := jpeg.Decode(bytes.NewReader(chunk))
			if err != nil {
				return frames, fmt.Errorf("failed to decode frame %d: %w", count, err)
			}
			frames = append(frames, toRGBA(img))
		}
		count++
	}
}

// nextJPEG extracts one JPEG image (SOI through EOI) from the stream.
// ffmpeg's mjpeg output never embeds thumbnails, so the EOI marker is
// unambiguous.
func nextJPEG(r *bufio.Reader) ([]byte, error) {
	// Seek start-of-image.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xFF {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if next == 0xD8 {
			break
		}
	}

	chunk := []byte{0xFF, 0xD8}
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("truncated jpeg in stream: %w", io.ErrUnexpectedEOF)
		}
		chunk = append(chunk, b)
		if b != 0xFF {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("truncated jpeg in stream: %w", io.ErrUnexpectedEOF)
		}
		chunk = append(chunk, next)
		if next == 0xD9 {
			return chunk, nil
		}
	}
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func stderrTail(buf *bytes.Buffer) string {
	const max = 300
	out := strings.TrimSpace(buf.String())
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
