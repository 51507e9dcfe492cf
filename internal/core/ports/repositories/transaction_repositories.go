package repositories

import (
	"context"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionFilter carries the query surface of the transaction list endpoint.
// Zero values mean "no filter".
type TransactionFilter struct {
	UserID    string
	AccountID string
	Type      domain.TransactionType
	Category  domain.Category
	StartDate *time.Time
	EndDate   *time.Time
	Search    string // matched against description, case-insensitive
	Limit     int
	Offset    int
}

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByExternalID retrieves a transaction by its aggregator id
	// within one account. Returns apperrors.ErrNotFound when absent.
	FindTransactionByExternalID(ctx context.Context, accountID string, externalID string) (*domain.Transaction, error)

	// ListTransactions returns one page of transactions plus the unpaged total.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, int64, error)

	// CountTransactionsByAccount returns the number of transactions on an account.
	CountTransactionsByAccount(ctx context.Context, accountID string) (int64, error)
}

// LedgerWriter defines the balance-maintaining write operations. Every method
// executes as a single database transaction: the owning account row is locked
// FOR UPDATE, its live balance is adjusted, and the balance-after snapshot of
// every transaction on the account is recomputed in (date, created_at) order,
// so out-of-order edits never leave stale snapshots behind.
type LedgerWriter interface {
	// CreateTransaction inserts the transaction and applies its signed amount
	// to the account balance. The returned copy carries the computed
	// BalanceAfter snapshot.
	CreateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)

	// UpdateTransaction rewrites the transaction row and shifts the account
	// balance by amountDelta (new amount minus previously stored amount).
	UpdateTransaction(ctx context.Context, txn domain.Transaction, amountDelta decimal.Decimal) (*domain.Transaction, error)

	// DeleteTransaction removes the row and reverts its amount from the
	// account balance.
	DeleteTransaction(ctx context.Context, txn domain.Transaction) error

	// ShiftOpeningBalance moves the account's opening balance and live
	// balance by delta in one locked transaction and recomputes every
	// snapshot. The transaction history itself is untouched; the shift
	// absorbs balance drift reported by an external source.
	ShiftOpeningBalance(ctx context.Context, accountID string, delta decimal.Decimal, updatedBy string, now time.Time) error
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	LedgerWriter
}
