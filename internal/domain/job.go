package domain

import "time"

// JobStatus enumerates the lifecycle states of a remote generation job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimeout    JobStatus = "timeout"
)

// Terminal reports whether no further polling can change the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusTimeout:
		return true
	default:
		return false
	}
}

// GenerationJob is one submitted effect job and what polling learned about it.
type GenerationJob struct {
	JobID       string    `json:"job_id"`
	SessionID   string    `json:"session_id"`
	SourceURL   string    `json:"source_url"`
	Model       string    `json:"model"`
	Status      JobStatus `json:"status"`
	ResultURL   string    `json:"result_url,omitempty"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
