package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrToolchainMissing means ffmpeg could not be resolved on PATH. Checked
	// before any expensive work; always fatal.
	ErrToolchainMissing = errors.New("ffmpeg not found on PATH")

	// ErrVideoOpen means the input video could not be opened or decoded.
	ErrVideoOpen = errors.New("video could not be opened")

	// ErrStyleImageNotFound means the style reference image is unreadable.
	ErrStyleImageNotFound = errors.New("style image not found")
)

// Stage identifies the pipeline step a fatal error came from.
type Stage string

const (
	StageToolchain  Stage = "toolchain"
	StageTranscribe Stage = "transcribe"
	StageFrames     Stage = "frames"
	StageStyleLoad  Stage = "style_load"
	StageStylize    Stage = "stylize"
	StageComposite  Stage = "composite"
	StageWrite      Stage = "write"
)

// StageError wraps a pipeline failure with the stage it came from and, for
// per-frame stages, the frame index. Frame is -1 for job-level stages.
type StageError struct {
	Stage Stage
	Frame int
	Err   error
}

func (e *StageError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("stage %s failed on frame %d: %v", e.Stage, e.Frame, e.Err)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Frame: -1, Err: err}
}

func frameErr(stage Stage, frame int, err error) *StageError {
	return &StageError{Stage: stage, Frame: frame, Err: err}
}
