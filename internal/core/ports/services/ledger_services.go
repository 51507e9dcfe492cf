package services

import (
	"context"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade is the balance maintainer: the single write path shared by
// user-driven transaction CRUD and the bank-sync pipeline. It keeps
// Account.Balance and Transaction.BalanceAfter consistent on every mutation.
type LedgerSvcFacade interface {
	// ApplyNew validates the owning account (must exist, belong to userID and
	// be active), normalizes the signed amount, derives the urgency flag, and
	// persists transaction and balance in one database transaction.
	ApplyNew(ctx context.Context, userID string, txn domain.Transaction) (*domain.Transaction, error)

	// Amend reverts the stored amount and applies the updated transaction,
	// recomputing downstream snapshots.
	Amend(ctx context.Context, userID string, existing domain.Transaction, updated domain.Transaction) (*domain.Transaction, error)

	// Remove reverts and deletes the transaction.
	Remove(ctx context.Context, userID string, existing domain.Transaction) error

	// ReconcileBalance shifts the account's opening balance so the live
	// balance matches target, recomputing every snapshot. Returns true when a
	// shift was applied, false when the balances already agreed.
	ReconcileBalance(ctx context.Context, userID string, accountID string, target decimal.Decimal) (bool, error)
}
