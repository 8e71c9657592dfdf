package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps jobs in process memory. Used when no database DSN is
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*Job
	events map[uuid.UUID][]ProgressEvent
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[uuid.UUID]*Job),
		events: make(map[uuid.UUID][]ProgressEvent),
	}
}

func (s *MemoryStore) CreateJob(ctx context.Context, videoName, stylePath string, mockMode bool) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.jobs[job.ID] = job

	copied := *job
	return &copied, nil
}

func (s *MemoryStore) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	copied := *job
	copied.Panels = append([]string(nil), job.Panels...)
	return &copied, nil
}

func (s *MemoryStore) GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[jobID]
	// Latest first, like the Postgres query.
	var latest []ProgressEvent
	for i := len(events) - 1; i >= 0 && len(latest) < limit; i-- {
		latest = append(latest, events[i])
	}

	return &JobWithProgress{Job: *job, LatestEvents: latest}, nil
}

func (s *MemoryStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, stage JobStage, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	job.Status = status
	job.Stage = stage
	job.Progress = progress
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AddProgressEvent(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	s.nextID++
	s.events[jobID] = append(s.events[jobID], ProgressEvent{
		ID:        s.nextID,
		JobID:     jobID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *MemoryStore) UpdateJobError(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	job.Status = StatusFailed
	job.Stage = StageFailed
	job.ErrorMessage = errorMessage
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CompleteJob(ctx context.Context, jobID uuid.UUID, panels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	now := time.Now()
	job.Status = StatusCompleted
	job.Stage = StageCompleted
	job.Progress = 100
	job.PanelCount = len(panels)
	job.Panels = append([]string(nil), panels...)
	job.UpdatedAt = now
	job.CompletedAt = &now
	return nil
}

func (s *MemoryStore) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var removed int64
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			delete(s.events, id)
			removed++
		}
	}
	return removed, nil
}
