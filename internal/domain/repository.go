package domain

import "context"

// JobRepository records generation jobs for later inspection.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	UpdateStatus(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, jobID string) (*GenerationJob, error)
	ListRecent(ctx context.Context, limit int) ([]GenerationJob, error)
}
