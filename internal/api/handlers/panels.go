package handlers

import (
	"ComicForge/internal/job"
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// panelNamePattern matches the only filenames the pipeline produces.
// Anything else in an output directory is not served.
var panelNamePattern = regexp.MustCompile(`^panel_\d{3}\.jpg$`)

// PanelsHandler serves finished panels and zip archives of them
type PanelsHandler struct {
	jobManager *job.Manager
	outputDir  string
	logger     *zap.Logger
}

// NewPanelsHandler creates a new panels handler
func NewPanelsHandler(jobManager *job.Manager, outputDir string, logger *zap.Logger) *PanelsHandler {
	return &PanelsHandler{
		jobManager: jobManager,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// ListPanels returns the panel filenames and URLs for a completed job
func (h *PanelsHandler) ListPanels(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	if _, err := h.jobManager.GetJob(r.Context(), jobID); err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	names, err := h.panelFiles(jobID)
	if err != nil {
		h.logger.Error("Failed to list panels",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		http.Error(w, "No panels found for job", http.StatusNotFound)
		return
	}

	panels := make([]map[string]string, 0, len(names))
	for _, name := range names {
		panels = append(panels, map[string]string{
			"name": name,
			"url":  fmt.Sprintf("/comics/%s/panels/%s", jobID, name),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id": jobID,
		"count":  len(panels),
		"panels": panels,
	})
}

// GetPanel serves a single panel image
func (h *PanelsHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	name := chi.URLParam(r, "name")
	if !panelNamePattern.MatchString(name) {
		http.Error(w, "Invalid panel name", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.outputDir, jobID.String(), name))
}

// DownloadArchive streams a zip archive of all panels for a job
func (h *PanelsHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	if _, err := h.jobManager.GetJob(r.Context(), jobID); err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	names, err := h.panelFiles(jobID)
	if err != nil || len(names) == 0 {
		http.Error(w, "No panels found for job", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="comic_panels_%s.zip"`, jobID))

	zw := zip.NewWriter(w)
	defer zw.Close()

	jobDir := filepath.Join(h.outputDir, jobID.String())
	for _, name := range names {
		if err := addToArchive(zw, filepath.Join(jobDir, name), name); err != nil {
			// Headers are already sent, all we can do is log and stop
			h.logger.Error("Failed to write archive entry",
				zap.String("job_id", jobID.String()),
				zap.String("panel", name),
				zap.Error(err),
			)
			return
		}
	}

	h.logger.Info("Archive downloaded",
		zap.String("job_id", jobID.String()),
		zap.Int("panels", len(names)),
	)
}

// panelFiles returns the sorted panel filenames present for a job
func (h *PanelsHandler) panelFiles(jobID uuid.UUID) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(h.outputDir, jobID.String()))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && panelNamePattern.MatchString(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func addToArchive(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entry, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}
