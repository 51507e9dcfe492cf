package services

import (
	"context"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// CurrencySvcFacade exposes the currency reference data.
type CurrencySvcFacade interface {
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
