package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements the ReportingRepositoryFacade interface
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepositoryFacade {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ReportingRepositoryFacade = (*reportingRepository)(nil)

// CategoryTotals sums absolute expense amounts per category within [from, to).
func (r *reportingRepository) CategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	query := `
		SELECT category, SUM(ABS(amount)) AS total, COUNT(*) AS cnt
		FROM transactions
		WHERE user_id = $1
			AND transaction_type = 'EXPENSE'
			AND transaction_date >= $2
			AND transaction_date < $3
		GROUP BY category
		ORDER BY total DESC
	`
	rows, err := r.Pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying category totals: %w", err)
	}
	defer rows.Close()

	result := []domain.CategoryTotal{}
	for rows.Next() {
		var row domain.CategoryTotal
		var category string
		if err := rows.Scan(&category, &row.Total, &row.Count); err != nil {
			return nil, fmt.Errorf("error scanning category total row: %w", err)
		}
		row.Category = domain.Category(category)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category total rows: %w", err)
	}
	return result, nil
}

// MonthlyFlows returns income and expense totals per calendar month for the
// trailing window, oldest first. Months with no activity are absent; callers
// fill gaps when they need a dense series.
func (r *reportingRepository) MonthlyFlows(ctx context.Context, userID string, months int) ([]domain.MonthlyFlow, error) {
	query := `
		SELECT
			date_trunc('month', transaction_date) AS month,
			COALESCE(SUM(CASE WHEN transaction_type = 'INCOME' THEN amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN transaction_type = 'EXPENSE' THEN ABS(amount) ELSE 0 END), 0) AS expenses
		FROM transactions
		WHERE user_id = $1
			AND transaction_date >= date_trunc('month', NOW()) - ($2 || ' months')::interval
		GROUP BY month
		ORDER BY month ASC
	`
	rows, err := r.Pool.Query(ctx, query, userID, months)
	if err != nil {
		return nil, fmt.Errorf("error querying monthly flows: %w", err)
	}
	defer rows.Close()

	result := []domain.MonthlyFlow{}
	for rows.Next() {
		var row domain.MonthlyFlow
		if err := rows.Scan(&row.Month, &row.Income, &row.Expenses); err != nil {
			return nil, fmt.Errorf("error scanning monthly flow row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly flow rows: %w", err)
	}
	return result, nil
}

// UrgentCount counts urgent transactions within [from, to).
func (r *reportingRepository) UrgentCount(ctx context.Context, userID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE user_id = $1
			AND is_urgent = TRUE
			AND transaction_date >= $2
			AND transaction_date < $3
	`
	var count int
	if err := r.Pool.QueryRow(ctx, query, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting urgent transactions: %w", err)
	}
	return count, nil
}

// AccountsOverview aggregates balances across the user's accounts.
func (r *reportingRepository) AccountsOverview(ctx context.Context, userID string) (*domain.AccountsOverview, error) {
	query := `
		SELECT
			account_type,
			is_active,
			provider_item_id IS NOT NULL AS linked,
			COALESCE(SUM(balance), 0) AS total,
			COUNT(*) AS cnt
		FROM accounts
		WHERE user_id = $1
		GROUP BY account_type, is_active, linked
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying accounts overview: %w", err)
	}
	defer rows.Close()

	overview := &domain.AccountsOverview{
		NetWorth:     decimal.Zero,
		TotalsByType: map[domain.AccountType]decimal.Decimal{},
	}
	for rows.Next() {
		var accountType string
		var isActive, linked bool
		var total decimal.Decimal
		var count int
		if err := rows.Scan(&accountType, &isActive, &linked, &total, &count); err != nil {
			return nil, fmt.Errorf("error scanning accounts overview row: %w", err)
		}
		if !isActive {
			overview.InactiveCount += count
			continue
		}
		overview.ActiveCount += count
		if linked {
			overview.LinkedCount += count
		}
		overview.NetWorth = overview.NetWorth.Add(total)
		t := domain.AccountType(accountType)
		existing, ok := overview.TotalsByType[t]
		if !ok {
			existing = decimal.Zero
		}
		overview.TotalsByType[t] = existing.Add(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts overview rows: %w", err)
	}
	return overview, nil
}
