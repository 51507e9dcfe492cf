package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// predictionWindowMonths is how many trailing complete months feed the
// next-month estimate.
const predictionWindowMonths = 3

// AnalyticsService computes category breakdowns, cash-flow series, insight
// heuristics and the trailing-average prediction. Everything is derived from
// the reporting queries on demand; nothing is precomputed or stored.
type AnalyticsService struct {
	reportingRepo portsrepo.ReportingRepositoryFacade
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(reportingRepo portsrepo.ReportingRepositoryFacade) *AnalyticsService {
	return &AnalyticsService{reportingRepo: reportingRepo}
}

var _ portssvc.AnalyticsSvcFacade = (*AnalyticsService)(nil)

// CategoryTotals sums spending per category within [from, to).
func (s *AnalyticsService) CategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	return s.reportingRepo.CategoryTotals(ctx, userID, from, to)
}

// monthStart truncates t to the first instant of its month in UTC.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// IncomeExpense returns a dense monthly income-vs-expense series for the
// trailing months window, oldest first. Months with no activity appear as
// zero rows.
func (s *AnalyticsService) IncomeExpense(ctx context.Context, userID string, months int) ([]domain.MonthlyFlow, error) {
	flows, err := s.reportingRepo.MonthlyFlows(ctx, userID, months)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[time.Time]domain.MonthlyFlow, len(flows))
	for _, f := range flows {
		byMonth[monthStart(f.Month)] = f
	}

	series := make([]domain.MonthlyFlow, 0, months+1)
	current := monthStart(time.Now().UTC())
	for i := months; i >= 0; i-- {
		m := current.AddDate(0, -i, 0)
		if f, ok := byMonth[m]; ok {
			f.Month = m
			series = append(series, f)
			continue
		}
		series = append(series, domain.MonthlyFlow{
			Month:    m,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		})
	}
	return series, nil
}

// Insights produces heuristic observations over the last 30 days of activity.
func (s *AnalyticsService) Insights(ctx context.Context, userID string) ([]domain.Insight, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)

	insights := []domain.Insight{}

	totals, err := s.reportingRepo.CategoryTotals(ctx, userID, from, now)
	if err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		top := totals[0]
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightTopCategory,
			Message: fmt.Sprintf("Your top spending category over the last 30 days is %s.", top.Category),
			Value:   top.Total.StringFixed(2),
		})
	}

	// Compare the two most recent complete month buckets. The in-progress
	// month is excluded: its partial expenses would always read as a drop.
	flows, err := s.reportingRepo.MonthlyFlows(ctx, userID, 3)
	if err != nil {
		return nil, err
	}
	currentMonth := monthStart(now)
	complete := flows[:0:0]
	for _, f := range flows {
		if monthStart(f.Month).Before(currentMonth) {
			complete = append(complete, f)
		}
	}
	if len(complete) >= 2 {
		prev := complete[len(complete)-2]
		last := complete[len(complete)-1]
		if prev.Expenses.IsPositive() {
			delta := last.Expenses.Sub(prev.Expenses).Div(prev.Expenses).Mul(decimal.NewFromInt(100))
			direction := "up"
			if delta.IsNegative() {
				direction = "down"
			}
			insights = append(insights, domain.Insight{
				Kind:    domain.InsightSpendDelta,
				Message: fmt.Sprintf("Spending is %s %s%% compared to the previous month.", direction, delta.Abs().StringFixed(1)),
				Value:   delta.StringFixed(1),
			})
		}
		if last.Income.IsPositive() {
			rate := last.Income.Sub(last.Expenses).Div(last.Income).Mul(decimal.NewFromInt(100))
			insights = append(insights, domain.Insight{
				Kind:    domain.InsightSavingsRate,
				Message: fmt.Sprintf("You kept %s%% of your income last month.", rate.StringFixed(1)),
				Value:   rate.StringFixed(1),
			})
		}
	}

	urgent, err := s.reportingRepo.UrgentCount(ctx, userID, from, now)
	if err != nil {
		return nil, err
	}
	if urgent > 0 {
		insights = append(insights, domain.Insight{
			Kind:    domain.InsightUrgentCount,
			Message: fmt.Sprintf("You had %d large transactions in the last 30 days.", urgent),
			Value:   fmt.Sprintf("%d", urgent),
		})
	}

	logger.Debug("Insights generated", slog.Int("count", len(insights)))
	return insights, nil
}

// Prediction estimates next month's income and expenses as the average of the
// trailing complete months. With no history both estimates are zero.
func (s *AnalyticsService) Prediction(ctx context.Context, userID string) (*domain.Prediction, error) {
	flows, err := s.reportingRepo.MonthlyFlows(ctx, userID, predictionWindowMonths)
	if err != nil {
		return nil, err
	}

	currentMonth := monthStart(time.Now().UTC())
	nextMonth := currentMonth.AddDate(0, 1, 0)

	// Only complete months count; the in-progress month would drag the
	// average down.
	var income, expenses decimal.Decimal
	samples := 0
	for _, f := range flows {
		if !monthStart(f.Month).Before(currentMonth) {
			continue
		}
		income = income.Add(f.Income)
		expenses = expenses.Add(f.Expenses)
		samples++
	}

	prediction := &domain.Prediction{
		Month:        nextMonth,
		SampleMonths: samples,
	}
	if samples > 0 {
		n := decimal.NewFromInt(int64(samples))
		prediction.PredictedIncome = income.Div(n).Round(2)
		prediction.PredictedExpenses = expenses.Div(n).Round(2)
	}
	return prediction, nil
}
