package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is an aggregate of spending within one category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"` // Sum of absolute expense amounts
	Count    int             `json:"count"`
}

// MonthlyFlow is one month of income vs expense.
type MonthlyFlow struct {
	Month    time.Time       `json:"month"` // First day of the month, UTC
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"` // Absolute magnitude
}

// InsightKind classifies a generated insight.
type InsightKind string

const (
	InsightTopCategory InsightKind = "TOP_CATEGORY"
	InsightSpendDelta  InsightKind = "SPEND_DELTA"
	InsightUrgentCount InsightKind = "URGENT_COUNT"
	InsightSavingsRate InsightKind = "SAVINGS_RATE"
)

// Insight is a single heuristic observation over a user's recent activity.
type Insight struct {
	Kind    InsightKind `json:"kind"`
	Message string      `json:"message"`
	Value   string      `json:"value"`
}

// Prediction is a naive next-month estimate from trailing monthly averages.
type Prediction struct {
	Month             time.Time       `json:"month"` // The month being predicted
	PredictedExpenses decimal.Decimal `json:"predictedExpenses"`
	PredictedIncome   decimal.Decimal `json:"predictedIncome"`
	SampleMonths      int             `json:"sampleMonths"` // Trailing months averaged
}

// AccountsOverview is the aggregate stats surface for a user's accounts.
type AccountsOverview struct {
	NetWorth      decimal.Decimal                 `json:"netWorth"`
	TotalsByType  map[AccountType]decimal.Decimal `json:"totalsByType"`
	ActiveCount   int                             `json:"activeCount"`
	LinkedCount   int                             `json:"linkedCount"`
	InactiveCount int                             `json:"inactiveCount"`
}
