package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists jobs and their progress events. The Postgres
// implementation backs production; the memory implementation serves
// single-node deployments without a database and tests.
type Store interface {
	CreateJob(ctx context.Context, videoName, stylePath string, mockMode bool) (*Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)
	GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error)
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, stage JobStage, progress int) error
	AddProgressEvent(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string) error
	UpdateJobError(ctx context.Context, jobID uuid.UUID, errorMessage string) error
	CompleteJob(ctx context.Context, jobID uuid.UUID, panels []string) error
	CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error)
}
