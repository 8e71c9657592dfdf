package handlers

import (
	"ComicForge/internal/job"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobsHandler handles job status requests
type JobsHandler struct {
	jobManager *job.Manager
	logger     *zap.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobManager *job.Manager, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		jobManager: jobManager,
		logger:     logger,
	}
}

// GetJob returns a job with its latest progress events
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("events"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	jobWithProgress, err := h.jobManager.GetJobWithProgress(r.Context(), jobID, limit)
	if err != nil {
		h.logger.Warn("Job lookup failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobWithProgress)
}
