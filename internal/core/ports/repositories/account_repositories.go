package repositories

import (
	"context"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByProviderID retrieves an account by its aggregator account id for a user.
	FindAccountByProviderID(ctx context.Context, userID string, providerAccountID string) (*domain.Account, error)

	// FindAccountByProviderItemID retrieves any account linked to an aggregator item.
	FindAccountByProviderItemID(ctx context.Context, providerItemID string) (*domain.Account, error)

	// ListAccountsByUser retrieves every account owned by a user, active first.
	ListAccountsByUser(ctx context.Context, userID string, includeInactive bool) ([]domain.Account, error)

	// ListLinkedAccounts retrieves every active aggregator-linked account for a user.
	ListLinkedAccounts(ctx context.Context, userID string) ([]domain.Account, error)

	// ListUsersWithLinkedAccounts returns the distinct owners of active
	// aggregator-linked accounts.
	ListUsersWithLinkedAccounts(ctx context.Context) ([]string, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's mutable details.
	// Balance is never written through this method.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// UpdateBankLink persists the aggregator link metadata for an account.
	UpdateBankLink(ctx context.Context, accountID string, link domain.BankLink, userID string, now time.Time) error

	// DeactivateAccount marks an account as inactive (soft delete).
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error

	// DeleteAccount removes an account row entirely. Only valid for accounts
	// with no transaction history.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
