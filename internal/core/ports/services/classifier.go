package services

import (
	"context"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Classification is the outcome of categorizing one transaction.
type Classification struct {
	Category   domain.Category
	Confidence float64
	Source     domain.ClassificationStatus
}

// Classifier assigns a category to a transaction from its description and
// signed amount. Implementations are interchangeable: the default is a
// keyword rule set, with an LLM-backed version available behind the same
// interface.
type Classifier interface {
	Classify(ctx context.Context, description string, amount decimal.Decimal) (*Classification, error)
}
