package pipeline

import (
	"ComicForge/pkg/ffmpeg"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSpeech struct {
	text    string
	err     error
	wavPath string
}

func (f *fakeSpeech) Transcribe(ctx context.Context, wavPath string) (string, error) {
	f.wavPath = wavPath
	return f.text, f.err
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"simple sentences",
			"Hello there. How are you? Great!",
			[]string{"Hello there.", "How are you?", "Great!"},
		},
		{
			"single sentence without terminator",
			"no punctuation at all",
			[]string{"no punctuation at all"},
		},
		{
			"trailing terminator",
			"One. Two.",
			[]string{"One.", "Two."},
		},
		{
			"punctuation runs stay attached",
			"Really?! Yes... maybe.",
			[]string{"Really?!", "Yes...", "maybe."},
		},
		{
			"decimal points do not split",
			"Pi is 3.14 roughly. Neat.",
			[]string{"Pi is 3.14 roughly.", "Neat."},
		},
		{
			"newlines and extra spaces",
			"First.\n  Second.   Third.",
			[]string{"First.", "Second.", "Third."},
		},
		{
			"empty input",
			"",
			nil,
		},
		{
			"whitespace only",
			"  \n\t ",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}

func TestTranscribeAudioExtractionFailure(t *testing.T) {
	// A nonexistent binary makes audio extraction fail outright.
	ff := ffmpeg.NewFFmpeg("/nonexistent/ffmpeg-binary")
	tr := NewTranscriber(ff, &fakeSpeech{text: "never reached"}, zap.NewNop())

	captions := tr.Transcribe(context.Background(), "video.mp4")
	assert.Equal(t, []string{CaptionAudioFailed}, captions)
}

func TestTranscribeSpeechFailure(t *testing.T) {
	// "true" accepts the extraction arguments and exits cleanly, so the
	// failure comes from the speech backend.
	ff := ffmpeg.NewFFmpeg("true")
	speech := &fakeSpeech{err: errors.New("model exploded")}
	tr := NewTranscriber(ff, speech, zap.NewNop())

	captions := tr.Transcribe(context.Background(), "video.mp4")
	assert.Equal(t, []string{CaptionTranscribeFailed}, captions)
	assert.NotEmpty(t, speech.wavPath, "speech backend should have been invoked")
}

func TestTranscribeSplitsTranscript(t *testing.T) {
	ff := ffmpeg.NewFFmpeg("true")
	speech := &fakeSpeech{text: "Hello there. General Kenobi!"}
	tr := NewTranscriber(ff, speech, zap.NewNop())

	captions := tr.Transcribe(context.Background(), "video.mp4")
	require.Equal(t, []string{"Hello there.", "General Kenobi!"}, captions)
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	ff := ffmpeg.NewFFmpeg("true")
	tr := NewTranscriber(ff, &fakeSpeech{text: "   "}, zap.NewNop())

	captions := tr.Transcribe(context.Background(), "video.mp4")
	assert.Empty(t, captions)
}
