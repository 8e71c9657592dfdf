package handlers

import (
	"ComicForge/internal/config"
	"ComicForge/internal/job"
	"ComicForge/internal/pipeline"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GeneratorFactory builds a fresh pipeline generator for one job. Each job
// gets its own generator so style contexts are never shared across
// concurrent runs.
type GeneratorFactory func(stylePath string) *pipeline.Generator

// ComicsHandler handles video upload and comic generation requests
type ComicsHandler struct {
	jobManager *job.Manager
	factory    GeneratorFactory
	publisher  *pipeline.Publisher
	toolchain  pipeline.Toolchain
	bubbles    *pipeline.Compositor
	cfg        *config.Config
	logger     *zap.Logger
}

// NewComicsHandler creates a new comics handler
func NewComicsHandler(jobManager *job.Manager, factory GeneratorFactory, publisher *pipeline.Publisher, toolchain pipeline.Toolchain, cfg *config.Config, logger *zap.Logger) *ComicsHandler {
	return &ComicsHandler{
		jobManager: jobManager,
		factory:    factory,
		publisher:  publisher,
		toolchain:  toolchain,
		bubbles:    pipeline.NewCompositor(cfg.Bubble),
		cfg:        cfg,
		logger:     logger,
	}
}

// Handle accepts the video upload, creates a job and returns its ID
// immediately; generation runs in the background.
func (h *ComicsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		h.logger.Error("Failed to parse multipart form", zap.Error(err))
		http.Error(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		h.logger.Error("Failed to read video file", zap.Error(err))
		http.Error(w, "No video file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !h.allowedFile(filename) {
		msg := fmt.Sprintf("Invalid file type. Allowed types: %s", strings.Join(h.cfg.Server.AllowedExtensions, ", "))
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	stylePath := r.FormValue("style")
	if stylePath == "" {
		stylePath = h.cfg.Style.ImagePath
	}

	createdJob, err := h.jobManager.CreateJob(r.Context(), filename, stylePath, h.cfg.MockMode)
	if err != nil {
		h.logger.Error("Failed to create job", zap.Error(err))
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	videoPath, err := h.saveUpload(createdJob.ID, filename, file)
	if err != nil {
		h.logger.Error("Failed to store upload", zap.Error(err))
		h.jobManager.EmitError(r.Context(), createdJob.ID, "Failed to store upload")
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	go h.generate(createdJob.ID, videoPath, stylePath)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id":    createdJob.ID,
		"message":   "Comic generation started",
		"mock_mode": h.cfg.MockMode,
	})

	h.logger.Info("Job created and generation started",
		zap.String("job_id", createdJob.ID.String()),
		zap.String("video", filename),
	)
}

func (h *ComicsHandler) saveUpload(jobID uuid.UUID, filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.cfg.Server.UploadDir, 0755); err != nil {
		return "", err
	}
	videoPath := filepath.Join(h.cfg.Server.UploadDir, fmt.Sprintf("%s_%s", jobID, filename))
	dst, err := os.Create(videoPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(videoPath)
		return "", err
	}
	return videoPath, nil
}

// generate runs the pipeline for one job in the background. On pipeline
// failure the job is marked failed, but placeholder panels are still
// written so the results view has something to show.
func (h *ComicsHandler) generate(jobID uuid.UUID, videoPath, stylePath string) {
	ctx := context.Background()
	defer os.Remove(videoPath)

	outputDir := filepath.Join(h.cfg.Server.OutputDir, jobID.String())

	if err := h.jobManager.EmitProgress(ctx, jobID, job.StageUploading, 5, "Starting comic generation"); err != nil {
		h.logger.Error("Failed to emit initial progress", zap.Error(err))
	}

	if h.cfg.MockMode {
		h.generateMock(ctx, jobID, outputDir, 6, "Generated placeholder panels (mock mode)")
		return
	}
	if err := h.toolchain.Available(); err != nil {
		h.logger.Warn("Toolchain unavailable, generating placeholder panels",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		h.generateMock(ctx, jobID, outputDir, 6, "Generated placeholder panels (toolchain unavailable)")
		return
	}

	gen := h.factory(stylePath)
	gen.JobID = jobID
	gen.OnProgress = func(p pipeline.Progress) {
		h.jobManager.EmitProgress(ctx, jobID, jobStage(p.Stage), p.Percent, p.Message)
	}

	paths, err := gen.Generate(ctx, videoPath, outputDir)
	if err != nil {
		h.logger.Error("Comic generation failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		h.jobManager.EmitError(ctx, jobID, fmt.Sprintf("Comic generation failed: %v", err))

		// Keep the results page populated, like the demo flow does.
		if _, mockErr := pipeline.GenerateMockPanels(outputDir, 4, h.cfg.Pipeline.TargetWidth, h.cfg.Pipeline.TargetHeight, h.bubbles); mockErr != nil {
			h.logger.Error("Failed to write fallback panels", zap.Error(mockErr))
		}
		return
	}

	if h.publisher != nil {
		h.jobManager.EmitProgress(ctx, jobID, job.StagePublishing, 97, "Publishing panels")
		if _, err := h.publisher.Publish(ctx, jobID.String(), paths); err != nil {
			// Panels still exist locally; publishing is not fatal.
			h.logger.Error("Panel publishing failed",
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
		}
	}

	if err := h.jobManager.CompleteJob(ctx, jobID, panelNames(paths)); err != nil {
		return
	}
}

func (h *ComicsHandler) generateMock(ctx context.Context, jobID uuid.UUID, outputDir string, count int, message string) {
	paths, err := pipeline.GenerateMockPanels(outputDir, count, h.cfg.Pipeline.TargetWidth, h.cfg.Pipeline.TargetHeight, h.bubbles)
	if err != nil {
		h.jobManager.EmitError(ctx, jobID, fmt.Sprintf("Mock generation failed: %v", err))
		return
	}
	h.jobManager.EmitProgress(ctx, jobID, job.StageRendering, 90, message)
	h.jobManager.CompleteJob(ctx, jobID, panelNames(paths))
}

func (h *ComicsHandler) allowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range h.cfg.Server.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func panelNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}

func jobStage(s pipeline.Stage) job.JobStage {
	switch s {
	case pipeline.StageTranscribe:
		return job.StageTranscribing
	case pipeline.StageFrames:
		return job.StageSampling
	case pipeline.StageStyleLoad:
		return job.StageStyling
	case pipeline.StageStylize, pipeline.StageComposite, pipeline.StageWrite:
		return job.StageRendering
	default:
		return job.StageUploading
	}
}
