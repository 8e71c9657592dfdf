package handlers

import (
	"ComicForge/internal/config"
	"ComicForge/internal/job"
	"ComicForge/internal/pipeline"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type okToolchain struct{}

func (okToolchain) Available() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Addr:              ":0",
			UploadDir:         filepath.Join(base, "uploads"),
			OutputDir:         filepath.Join(base, "outputs"),
			MaxUploadMB:       10,
			AllowedExtensions: []string{"mp4", "avi", "mov"},
		},
		MockMode: true,
	}
}

func newMockHandler(t *testing.T) (*ComicsHandler, *job.Manager) {
	t.Helper()
	manager := job.NewManager(job.NewMemoryStore(), zap.NewNop())
	h := NewComicsHandler(manager, nil, nil, okToolchain{}, testConfig(t), zap.NewNop())
	return h, manager
}

func uploadRequest(t *testing.T, filename string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake video bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/comics", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleMockModeUpload(t *testing.T) {
	h, manager := newMockHandler(t)

	w := httptest.NewRecorder()
	h.Handle(w, uploadRequest(t, "holiday.mp4"))

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID    uuid.UUID `json:"job_id"`
		MockMode bool      `json:"mock_mode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.JobID)
	assert.True(t, resp.MockMode)

	// Generation runs in the background; mock panels land quickly.
	require.Eventually(t, func() bool {
		j, err := manager.GetJob(context.Background(), resp.JobID)
		return err == nil && j.Status == job.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	j, err := manager.GetJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, 6, j.PanelCount)
	assert.Equal(t, "holiday.mp4", j.VideoName)

	entries, err := os.ReadDir(filepath.Join(h.cfg.Server.OutputDir, resp.JobID.String()))
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	// Upload file is removed once generation ends.
	require.Eventually(t, func() bool {
		uploads, err := os.ReadDir(h.cfg.Server.UploadDir)
		return err == nil && len(uploads) == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestHandleRejectsUnknownExtension(t *testing.T) {
	h, _ := newMockHandler(t)

	w := httptest.NewRecorder()
	h.Handle(w, uploadRequest(t, "notes.txt"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMissingVideoField(t *testing.T) {
	h, _ := newMockHandler(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/comics", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	h.Handle(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAllowedFile(t *testing.T) {
	h, _ := newMockHandler(t)

	assert.True(t, h.allowedFile("clip.mp4"))
	assert.True(t, h.allowedFile("CLIP.MP4"))
	assert.True(t, h.allowedFile("a.b.mov"))
	assert.False(t, h.allowedFile("clip.txt"))
	assert.False(t, h.allowedFile("clip"))
	assert.False(t, h.allowedFile(".mp4x"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "clip.mp4", sanitizeFilename("clip.mp4"))
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "my_video_1.mp4", sanitizeFilename("my video 1.mp4"))
	assert.Equal(t, "clip_name.mp4", sanitizeFilename("clip$name.mp4"))
}

func TestJobStageMapping(t *testing.T) {
	assert.Equal(t, job.StageTranscribing, jobStage(pipeline.StageTranscribe))
	assert.Equal(t, job.StageSampling, jobStage(pipeline.StageFrames))
	assert.Equal(t, job.StageStyling, jobStage(pipeline.StageStyleLoad))
	assert.Equal(t, job.StageRendering, jobStage(pipeline.StageStylize))
	assert.Equal(t, job.StageRendering, jobStage(pipeline.StageComposite))
	assert.Equal(t, job.StageRendering, jobStage(pipeline.StageWrite))
	assert.Equal(t, job.StageUploading, jobStage(pipeline.StageToolchain))
}

func TestPanelNames(t *testing.T) {
	paths := []string{
		filepath.Join("outputs", "abc", "panel_000.jpg"),
		filepath.Join("outputs", "abc", "panel_001.jpg"),
	}
	assert.Equal(t, []string{"panel_000.jpg", "panel_001.jpg"}, panelNames(paths))
}
