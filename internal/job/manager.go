package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager handles job lifecycle and SSE broadcasting
type Manager struct {
	store     Store
	logger    *zap.Logger
	clients   map[uuid.UUID][]chan ProgressUpdate
	clientsMu sync.RWMutex
}

// NewManager creates a new job manager
func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		clients: make(map[uuid.UUID][]chan ProgressUpdate),
	}
}

// CreateJob creates a new job
func (m *Manager) CreateJob(ctx context.Context, videoName, stylePath string, mockMode bool) (*Job, error) {
	job, err := m.store.CreateJob(ctx, videoName, stylePath, mockMode)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Job created",
		zap.String("job_id", job.ID.String()),
		zap.String("video", videoName),
		zap.Bool("mock_mode", mockMode),
	)

	return job, nil
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return m.store.GetJob(ctx, jobID)
}

// GetJobWithProgress retrieves a job with its progress events
func (m *Manager) GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error) {
	return m.store.GetJobWithProgress(ctx, jobID, limit)
}

// EmitProgress emits a progress update for a job
func (m *Manager) EmitProgress(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string) error {
	status := StatusProcessing
	if progress >= 100 {
		status = StatusCompleted
	}

	if err := m.store.UpdateJobStatus(ctx, jobID, status, stage, progress); err != nil {
		m.logger.Error("Failed to update job status",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := m.store.AddProgressEvent(ctx, jobID, stage, progress, message); err != nil {
		m.logger.Error("Failed to add progress event",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	m.broadcastUpdate(jobID, ProgressUpdate{
		JobID:     jobID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now(),
	})

	m.logger.Info("Progress emitted",
		zap.String("job_id", jobID.String()),
		zap.String("stage", string(stage)),
		zap.Int("progress", progress),
		zap.String("message", message),
	)

	return nil
}

// EmitError marks a job failed and notifies subscribers
func (m *Manager) EmitError(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	if err := m.store.UpdateJobError(ctx, jobID, errorMessage); err != nil {
		m.logger.Error("Failed to update job error",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	m.broadcastUpdate(jobID, ProgressUpdate{
		JobID:     jobID,
		Stage:     StageFailed,
		Progress:  0,
		Message:   errorMessage,
		Timestamp: time.Now(),
	})

	m.logger.Error("Job failed",
		zap.String("job_id", jobID.String()),
		zap.String("error", errorMessage),
	)

	return nil
}

// CompleteJob records the panel set and emits the final progress event
func (m *Manager) CompleteJob(ctx context.Context, jobID uuid.UUID, panels []string) error {
	if err := m.store.CompleteJob(ctx, jobID, panels); err != nil {
		m.logger.Error("Failed to complete job",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := m.EmitProgress(ctx, jobID, StageCompleted, 100, "Comic generation completed"); err != nil {
		return err
	}

	m.logger.Info("Job completed",
		zap.String("job_id", jobID.String()),
		zap.Int("panels", len(panels)),
	)

	return nil
}

// Subscribe adds an SSE client for a job
func (m *Manager) Subscribe(jobID uuid.UUID) chan ProgressUpdate {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	ch := make(chan ProgressUpdate, 10)
	m.clients[jobID] = append(m.clients[jobID], ch)

	m.logger.Info("Client subscribed",
		zap.String("job_id", jobID.String()),
		zap.Int("total_clients", len(m.clients[jobID])),
	)

	return ch
}

// Unsubscribe removes an SSE client
func (m *Manager) Unsubscribe(jobID uuid.UUID, ch chan ProgressUpdate) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	clients := m.clients[jobID]
	for i, client := range clients {
		if client == ch {
			m.clients[jobID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}

	if len(m.clients[jobID]) == 0 {
		delete(m.clients, jobID)
	}

	m.logger.Info("Client unsubscribed",
		zap.String("job_id", jobID.String()),
		zap.Int("remaining_clients", len(m.clients[jobID])),
	)
}

// broadcastUpdate broadcasts a progress update to all subscribers
func (m *Manager) broadcastUpdate(jobID uuid.UUID, update ProgressUpdate) {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()

	clients := m.clients[jobID]
	if len(clients) == 0 {
		return
	}

	for _, ch := range clients {
		select {
		case ch <- update:
			// Successfully sent
		default:
			// Channel full, skip this update
			m.logger.Warn("Client channel full, skipping update",
				zap.String("job_id", jobID.String()),
			)
		}
	}
}

// CleanupOldJobs removes jobs older than the specified duration
func (m *Manager) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	count, err := m.store.CleanupOldJobs(ctx, olderThan)
	if err != nil {
		m.logger.Error("Failed to cleanup old jobs", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		m.logger.Info("Old jobs cleaned up", zap.Int64("count", count))
	}
	return count, nil
}
