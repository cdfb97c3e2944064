package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository on top of a marked-query executor,
// usually an *infra.SQLRunner wrapping the pool.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// EnsureSchema creates the history table when it does not exist.
func (r *JobRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureGenerationJobs); err != nil {
		return fmt.Errorf("repo: ensure schema: %w", err)
	}
	return nil
}

// Create inserts a new job record. Re-inserting a known job is a no-op.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertGenerationJob,
		job.JobID,
		job.SessionID,
		job.SourceURL,
		job.Model,
		string(job.Status),
		job.ResultURL,
		job.Attempts,
		job.Error,
		job.SubmittedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: insert job: %w", err)
	}
	return nil
}

// UpdateStatus stores the latest polling outcome for a job.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, job *domain.GenerationJob) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateGenerationJob,
		job.JobID,
		string(job.Status),
		job.ResultURL,
		job.Attempts,
		job.Error,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGetGenerationJob, jobID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: get job: %w", err)
	}
	return job, nil
}

// ListRecent returns up to limit jobs, newest first.
func (r *JobRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.GenerationJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentGenerationJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("repo: scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	var status string
	if err := row.Scan(
		&job.JobID,
		&job.SessionID,
		&job.SourceURL,
		&job.Model,
		&status,
		&job.ResultURL,
		&job.Attempts,
		&job.Error,
		&job.SubmittedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
