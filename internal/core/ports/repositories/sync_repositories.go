package repositories

import (
	"context"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// SyncJobRepositoryFacade persists sync-job state. The claim is a conditional
// write, so the single-runner guarantee holds across server instances.
type SyncJobRepositoryFacade interface {
	// ClaimJob atomically creates a RUNNING job for (userID, scope), failing
	// with apperrors.ErrConflict when one is already running.
	ClaimJob(ctx context.Context, userID string, scope domain.SyncScope, now time.Time) (*domain.SyncJob, error)

	// FinishJob records the terminal status and counters of a claimed job.
	FinishJob(ctx context.Context, job *domain.SyncJob, now time.Time) error

	// FindLatestJob returns the most recent job for (userID, scope), or
	// apperrors.ErrNotFound when the user has never synced.
	FindLatestJob(ctx context.Context, userID string, scope domain.SyncScope) (*domain.SyncJob, error)
}
