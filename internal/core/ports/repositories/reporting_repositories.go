package repositories

import (
	"context"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// ReportingRepositoryFacade defines the read-only aggregation queries that
// back the analytics endpoints. All sums run in SQL; no rollups are stored.
type ReportingRepositoryFacade interface {
	// CategoryTotals sums absolute expense amounts per category for a user
	// within [from, to).
	CategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error)

	// MonthlyFlows returns income and expense totals bucketed by calendar
	// month for the trailing months window, oldest first.
	MonthlyFlows(ctx context.Context, userID string, months int) ([]domain.MonthlyFlow, error)

	// UrgentCount counts urgent transactions for a user within [from, to).
	UrgentCount(ctx context.Context, userID string, from, to time.Time) (int, error)

	// AccountsOverview aggregates balances across the user's accounts.
	AccountsOverview(ctx context.Context, userID string) (*domain.AccountsOverview, error)
}
