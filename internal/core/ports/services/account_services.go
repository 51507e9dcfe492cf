package services

import (
	"context"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/dto"
)

// AccountReaderSvc defines read operations for account data.
type AccountReaderSvc interface {
	// GetAccountByID retrieves an account, enforcing caller ownership.
	GetAccountByID(ctx context.Context, accountID string, userID string) (*domain.Account, error)

	// ListAccounts retrieves the caller's accounts.
	ListAccounts(ctx context.Context, userID string, includeInactive bool) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account data.
type AccountWriterSvc interface {
	// CreateAccount persists a new manual account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount updates name/description/color. Balance is out of reach.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeleteAccount soft-deletes accounts with transaction history and
	// hard-deletes empty ones.
	DeleteAccount(ctx context.Context, accountID string, userID string) error
}

// AccountStatsSvc defines aggregate operations over a user's accounts.
type AccountStatsSvc interface {
	// GetOverview returns balance totals per account type and net worth.
	GetOverview(ctx context.Context, userID string) (*domain.AccountsOverview, error)
}

// AccountSvcFacade combines all account-related service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountStatsSvc
}
