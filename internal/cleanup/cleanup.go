package cleanup

import (
	"ComicForge/internal/job"
	types "ComicForge/pkg"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

// Janitor periodically removes expired uploads, output directories and job
// records. Comic panels are throwaway artifacts, so anything older than the
// configured age is deleted outright.
type Janitor struct {
	jobManager *job.Manager
	uploadDir  string
	outputDir  string
	maxAge     time.Duration
	cron       *cron.Cron
	logger     *zap.Logger
}

// NewJanitor creates a cleanup scheduler from config
func NewJanitor(jobManager *job.Manager, cfg types.CleanupConfig, uploadDir, outputDir string, logger *zap.Logger) *Janitor {
	j := &Janitor{
		jobManager: jobManager,
		uploadDir:  uploadDir,
		outputDir:  outputDir,
		maxAge:     time.Duration(cfg.MaxAgeMin) * time.Minute,
		cron:       cron.New(),
		logger:     logger,
	}
	if err := j.cron.AddFunc(cfg.Schedule, j.Run); err != nil {
		// A bad schedule disables periodic sweeps; Run can still be
		// triggered directly.
		logger.Error("Invalid cleanup schedule", zap.String("schedule", cfg.Schedule), zap.Error(err))
	}
	return j
}

// Start begins the cleanup schedule
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("Cleanup scheduler started",
		zap.Duration("max_age", j.maxAge),
	)
}

// Stop halts the cleanup schedule
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Run performs one cleanup sweep. Exported so it can be triggered directly.
func (j *Janitor) Run() {
	cutoff := time.Now().Add(-j.maxAge)

	uploads := j.sweepFiles(j.uploadDir, cutoff)
	outputs := j.sweepDirs(j.outputDir, cutoff)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs, err := j.jobManager.CleanupOldJobs(ctx, j.maxAge)
	if err != nil {
		j.logger.Error("Job record cleanup failed", zap.Error(err))
	}

	if uploads > 0 || outputs > 0 || jobs > 0 {
		j.logger.Info("Cleanup sweep finished",
			zap.Int("uploads_removed", uploads),
			zap.Int("outputs_removed", outputs),
			zap.Int64("jobs_removed", jobs),
		)
	}
}

// sweepFiles removes regular files older than the cutoff
func (j *Janitor) sweepFiles(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			j.logger.Warn("Failed to remove expired upload",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		removed++
	}
	return removed
}

// sweepDirs removes per-job output directories older than the cutoff
func (j *Janitor) sweepDirs(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			j.logger.Warn("Failed to remove expired output directory",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		removed++
	}
	return removed
}
