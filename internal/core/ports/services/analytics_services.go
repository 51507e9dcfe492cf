package services

import (
	"context"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// AnalyticsSvcFacade exposes the read-only aggregation endpoints.
type AnalyticsSvcFacade interface {
	// CategoryTotals sums spending per category within [from, to).
	CategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error)

	// IncomeExpense returns a monthly income-vs-expense series for the
	// trailing months window, oldest first.
	IncomeExpense(ctx context.Context, userID string, months int) ([]domain.MonthlyFlow, error)

	// Insights produces heuristic observations over recent activity.
	Insights(ctx context.Context, userID string) ([]domain.Insight, error)

	// Prediction estimates next month's income and expenses by trailing average.
	Prediction(ctx context.Context, userID string) (*domain.Prediction, error)
}
