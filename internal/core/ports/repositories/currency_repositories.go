package repositories

import (
	"context"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// CurrencyRepositoryFacade defines operations for the currency reference table.
type CurrencyRepositoryFacade interface {
	FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
