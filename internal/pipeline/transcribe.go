package pipeline

import (
	types "ComicForge/pkg"
	"ComicForge/pkg/ffmpeg"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Sentinel captions emitted when the audio path degrades. Captions are
// best-effort annotation; a video without a usable audio track still
// produces panels.
const (
	CaptionAudioFailed      = "[Audio extraction failed]"
	CaptionTranscribeFailed = "[Transcription failed]"
)

// SpeechToText converts an extracted WAV file into transcript text.
type SpeechToText interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Transcriber extracts the audio track of a video and turns it into an
// ordered caption sequence. It never returns an error: both failure modes
// collapse into a single sentinel caption so the pipeline keeps going.
type Transcriber struct {
	ffmpeg *ffmpeg.FFmpeg
	speech SpeechToText
	logger *zap.Logger
}

func NewTranscriber(ff *ffmpeg.FFmpeg, speech SpeechToText, logger *zap.Logger) *Transcriber {
	return &Transcriber{ffmpeg: ff, speech: speech, logger: logger}
}

// Transcribe returns caption sentences in chronological order. Temporary
// audio artifacts are removed on every path.
func (t *Transcriber) Transcribe(ctx context.Context, videoPath string) []string {
	tmpDir, err := os.MkdirTemp("", "comicforge-audio-*")
	if err != nil {
		t.logger.Error("Failed to create temp audio dir", zap.Error(err))
		return []string{CaptionAudioFailed}
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "audio.wav")
	if err := t.ffmpeg.ExtractAudio(ctx, videoPath, wavPath); err != nil {
		t.logger.Warn("Audio extraction failed, continuing without captions",
			zap.String("video", videoPath),
			zap.Error(err))
		return []string{CaptionAudioFailed}
	}

	text, err := t.speech.Transcribe(ctx, wavPath)
	if err != nil {
		t.logger.Warn("Transcription failed, continuing with placeholder captions",
			zap.String("video", videoPath),
			zap.Error(err))
		return []string{CaptionTranscribeFailed}
	}

	sentences := SplitSentences(text)
	t.logger.Info("Transcription completed",
		zap.String("video", videoPath),
		zap.Int("sentences", len(sentences)))
	return sentences
}

// SplitSentences splits transcript text on sentence-boundary punctuation
// (".", "!", "?" followed by whitespace), keeping the punctuation attached
// to its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isSentenceEnd(text[i]) {
			continue
		}
		// Consume a run of terminal punctuation ("?!", "...").
		end := i + 1
		for end < len(text) && isSentenceEnd(text[end]) {
			end++
		}
		if end < len(text) && !isWhitespace(text[end]) {
			i = end - 1
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		for end < len(text) && isWhitespace(text[end]) {
			end++
		}
		start = end
		i = end - 1
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// WhisperCLI runs the external whisper binary over a WAV file and reads the
// JSON transcript it writes next to the input.
type WhisperCLI struct {
	path     string
	model    string
	language string
}

func NewWhisperCLI(cfg types.TranscribeConfig) *WhisperCLI {
	path := cfg.WhisperPath
	if path == "" {
		path = "whisper"
	}
	model := cfg.Model
	if model == "" {
		model = "tiny"
	}
	return &WhisperCLI{path: path, model: model, language: cfg.Language}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, wavPath string) (string, error) {
	outDir := filepath.Dir(wavPath)
	args := []string{
		wavPath,
		"--model", w.model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--fp16", "False",
		"--verbose", "False",
	}
	if w.language != "" {
		args = append(args, "--language", w.language)
	}

	cmd := exec.CommandContext(ctx, w.path, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("whisper command failed: %v, output: %s", err, string(output))
	}

	base := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	jsonPath := filepath.Join(outDir, base+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("failed to read whisper output: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to parse whisper output: %w", err)
	}
	return result.Text, nil
}
