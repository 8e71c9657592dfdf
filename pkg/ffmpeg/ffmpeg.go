package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

type FFmpeg struct {
	pathToBinary string
}

func NewFFmpeg(pathToBinary string) *FFmpeg {
	if pathToBinary == "" {
		pathToBinary = "ffmpeg"
	}
	return &FFmpeg{pathToBinary: pathToBinary}
}

// Available reports whether the ffmpeg binary can be resolved on PATH.
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.pathToBinary); err != nil {
		return fmt.Errorf("ffmpeg binary %q not found: %w", f.pathToBinary, err)
	}
	return nil
}

// ExtractAudio demuxes the audio track of inputFile into a 16kHz mono WAV,
// the sample format the transcription model expects.
func (f *FFmpeg) ExtractAudio(ctx context.Context, inputFile, outputFile string) error {
	args := []string{
		"-i", inputFile,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		outputFile,
	}
	_, err := f.Exec(ctx, args)
	return err
}

// FrameStream is a running ffmpeg decode whose stdout carries concatenated
// JPEG images, one per decoded frame. Close must be called to reap the
// process; Stderr holds diagnostics after Close.
type FrameStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	Stderr *bytes.Buffer
}

func (s *FrameStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *FrameStream) Close() error {
	s.stdout.Close()
	return s.cmd.Wait()
}

// StreamFrames starts decoding every frame of inputFile in presentation
// order, scaled to width x height, as an MJPEG pipe.
func (f *FFmpeg) StreamFrames(ctx context.Context, inputFile string, width, height int) (*FrameStream, error) {
	args := []string{
		"-i", inputFile,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	}
	cmd := exec.CommandContext(ctx, f.pathToBinary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &FrameStream{cmd: cmd, stdout: stdout, Stderr: &stderr}, nil
}

func (f *FFmpeg) Exec(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, f.pathToBinary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg command failed: %v, output: %s", err, string(output))
	}

	return args[len(args)-1], nil
}
