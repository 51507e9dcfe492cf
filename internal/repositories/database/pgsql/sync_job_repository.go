package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	"github.com/finbook/finbook_backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSyncJobRepository struct {
	BaseRepository
}

// newPgxSyncJobRepository creates a new repository for sync-job records.
func newPgxSyncJobRepository(pool *pgxpool.Pool) portsrepo.SyncJobRepositoryFacade {
	return &PgxSyncJobRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SyncJobRepositoryFacade = (*PgxSyncJobRepository)(nil)

// ClaimJob creates a RUNNING job for (userID, scope) unless one is already
// running. The insert is conditional on the absence of a running row, so two
// concurrent claims race on the database and exactly one wins.
func (r *PgxSyncJobRepository) ClaimJob(ctx context.Context, userID string, scope domain.SyncScope, now time.Time) (*domain.SyncJob, error) {
	jobID := uuid.NewString()
	query := `
		INSERT INTO sync_jobs (job_id, user_id, scope, status, started_at)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM sync_jobs
			WHERE user_id = $2 AND scope = $3 AND status = $4
		);
	`
	tag, err := r.Pool.Exec(ctx, query, jobID, userID, string(scope), string(domain.SyncRunning), now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // partial unique index on running jobs
			return nil, fmt.Errorf("%w: a %s sync is already running", apperrors.ErrConflict, scope)
		}
		return nil, fmt.Errorf("failed to claim sync job for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: a %s sync is already running", apperrors.ErrConflict, scope)
	}
	return &domain.SyncJob{
		JobID:     jobID,
		UserID:    userID,
		Scope:     scope,
		Status:    domain.SyncRunning,
		StartedAt: now,
	}, nil
}

// FinishJob records the terminal status and counters of a claimed job.
func (r *PgxSyncJobRepository) FinishJob(ctx context.Context, job *domain.SyncJob, now time.Time) error {
	query := `
		UPDATE sync_jobs
		SET status = $2, finished_at = $3, error = $4, added = $5, updated = $6, removed = $7
		WHERE job_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		job.JobID, string(job.Status), now, nullStr(job.Error),
		job.Added, job.Updated, job.Removed,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync job %s: %w", job.JobID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindLatestJob returns the most recent job for (userID, scope).
func (r *PgxSyncJobRepository) FindLatestJob(ctx context.Context, userID string, scope domain.SyncScope) (*domain.SyncJob, error) {
	query := `
		SELECT job_id, user_id, scope, status, started_at, finished_at, error, added, updated, removed
		FROM sync_jobs
		WHERE user_id = $1 AND scope = $2
		ORDER BY started_at DESC
		LIMIT 1;
	`
	var m models.SyncJob
	err := r.Pool.QueryRow(ctx, query, userID, string(scope)).Scan(
		&m.JobID, &m.UserID, &m.Scope, &m.Status,
		&m.StartedAt, &m.FinishedAt, &m.Error,
		&m.Added, &m.Updated, &m.Removed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest sync job: %w", err)
	}
	return &domain.SyncJob{
		JobID:      m.JobID,
		UserID:     m.UserID,
		Scope:      domain.SyncScope(m.Scope),
		Status:     domain.SyncStatus(m.Status),
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Error:      m.Error.String,
		Added:      m.Added,
		Updated:    m.Updated,
		Removed:    m.Removed,
	}, nil
}
