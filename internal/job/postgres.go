package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore handles database operations for jobs
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new job store backed by Postgres
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateJob creates a new job in the database
func (s *PostgresStore) CreateJob(ctx context.Context, videoName, stylePath string, mockMode bool) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		VideoName: videoName,
		StylePath: stylePath,
		Status:    StatusPending,
		Progress:  0,
		MockMode:  mockMode,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
		INSERT INTO jobs (id, video_name, style_path, status, progress, mock_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		job.ID, job.VideoName, job.StylePath, job.Status,
		job.Progress, job.MockMode,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

// GetJob retrieves a job by ID
func (s *PostgresStore) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	query := `
		SELECT id, video_name, style_path, status, stage, progress,
		       error_message, panel_count, panels, mock_mode,
		       created_at, updated_at, completed_at
		FROM jobs
		WHERE id = $1
	`

	var job Job
	var stage, errorMessage *string
	var panels []string
	var completedAt *time.Time

	err := s.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.VideoName, &job.StylePath, &job.Status, &stage, &job.Progress,
		&errorMessage, &job.PanelCount, &panels, &job.MockMode,
		&job.CreatedAt, &job.UpdatedAt, &completedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if stage != nil {
		job.Stage = JobStage(*stage)
	}
	if errorMessage != nil {
		job.ErrorMessage = *errorMessage
	}
	job.Panels = panels
	job.CompletedAt = completedAt

	return &job, nil
}

// GetJobWithProgress retrieves a job with its latest progress events
func (s *PostgresStore) GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10 // Default limit
	}

	query := `
		SELECT id, job_id, stage, progress, message, created_at
		FROM progress_events
		WHERE job_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress events: %w", err)
	}
	defer rows.Close()

	var events []ProgressEvent
	for rows.Next() {
		var e ProgressEvent
		if err := rows.Scan(&e.ID, &e.JobID, &e.Stage, &e.Progress, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress event: %w", err)
		}
		events = append(events, e)
	}

	return &JobWithProgress{Job: *job, LatestEvents: events}, nil
}

// UpdateJobStatus updates a job's status, stage and progress
func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, stage JobStage, progress int) error {
	query := `
		UPDATE jobs
		SET status = $2, stage = $3, progress = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, jobID, status, stage, progress, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// AddProgressEvent appends a progress event for a job
func (s *PostgresStore) AddProgressEvent(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string) error {
	query := `
		INSERT INTO progress_events (job_id, stage, progress, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query, jobID, stage, progress, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add progress event: %w", err)
	}
	return nil
}

// UpdateJobError marks a job as failed with an error message
func (s *PostgresStore) UpdateJobError(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	query := `
		UPDATE jobs
		SET status = $2, stage = $3, error_message = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, jobID, StatusFailed, StageFailed, errorMessage, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update job error: %w", err)
	}
	return nil
}

// CompleteJob records the finished panel set and marks the job completed
func (s *PostgresStore) CompleteJob(ctx context.Context, jobID uuid.UUID, panels []string) error {
	now := time.Now()
	query := `
		UPDATE jobs
		SET status = $2, stage = $3, progress = 100, panel_count = $4, panels = $5,
		    updated_at = $6, completed_at = $6
		WHERE id = $1
	`
	_, err := s.db.Exec(ctx, query, jobID, StatusCompleted, StageCompleted, len(panels), panels, now)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// CleanupOldJobs deletes jobs (and their progress events) older than the cutoff
func (s *PostgresStore) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	if _, err := s.db.Exec(ctx,
		`DELETE FROM progress_events WHERE job_id IN (SELECT id FROM jobs WHERE created_at < $1)`,
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("failed to cleanup progress events: %w", err)
	}

	result, err := s.db.Exec(ctx, `DELETE FROM jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}

	return result.RowsAffected(), nil
}
