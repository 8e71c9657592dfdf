package job

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// JobStage represents the current processing stage
type JobStage string

const (
	StageUploading    JobStage = "uploading"
	StageTranscribing JobStage = "transcribing"
	StageSampling     JobStage = "sampling"
	StageStyling      JobStage = "styling"
	StageRendering    JobStage = "rendering"
	StagePublishing   JobStage = "publishing"
	StageCompleted    JobStage = "completed"
	StageFailed       JobStage = "failed"
)

// Job represents one video-to-comic conversion request. The job ID doubles
// as the name of the output directory holding the panels.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	VideoName    string     `json:"video_name"`
	StylePath    string     `json:"style_path"`
	Status       JobStatus  `json:"status"`
	Stage        JobStage   `json:"stage,omitempty"`
	Progress     int        `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	PanelCount   int        `json:"panel_count"`
	Panels       []string   `json:"panels,omitempty"`
	MockMode     bool       `json:"mock_mode"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ProgressEvent represents a single progress update event
type ProgressEvent struct {
	ID        int64     `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Stage     JobStage  `json:"stage"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// JobWithProgress combines job info with recent progress events
type JobWithProgress struct {
	Job
	LatestEvents []ProgressEvent `json:"latest_events"`
}

// ProgressUpdate represents a progress update to be broadcast via SSE
type ProgressUpdate struct {
	JobID     uuid.UUID `json:"job_id"`
	Stage     JobStage  `json:"stage"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
