package dto

import (
	"github.com/finbook/finbook_backend/internal/core/domain"
)

// AnalyticsRangeParams bounds an analytics query to a date window. Dates are
// YYYY-MM-DD; both are optional and default to a trailing window.
type AnalyticsRangeParams struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// IncomeExpenseParams selects how many trailing months the series covers.
type IncomeExpenseParams struct {
	Months int `form:"months,default=6" binding:"omitempty,min=1,max=36"`
}

// CategoryTotalsResponse is the category spend breakdown.
type CategoryTotalsResponse struct {
	Totals []domain.CategoryTotal `json:"totals"`
}

// IncomeExpenseResponse is the month-by-month income vs expense series.
type IncomeExpenseResponse struct {
	Series []domain.MonthlyFlow `json:"series"`
}

// InsightsResponse wraps the generated insights.
type InsightsResponse struct {
	Insights []domain.Insight `json:"insights"`
}

// PredictionResponse wraps the next-month estimate.
type PredictionResponse struct {
	Prediction domain.Prediction `json:"prediction"`
}
