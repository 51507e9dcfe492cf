package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// LedgerService is the single write path onto account balances. Transaction
// CRUD and the bank-sync import both funnel through it so the invariants
// (signed amounts, urgency flag, balance snapshots) hold no matter who writes.
type LedgerService struct {
	transactionRepo portsrepo.TransactionRepositoryFacade
	accountRepo     portsrepo.AccountRepositoryFacade
}

// NewLedgerService creates the balance maintainer.
func NewLedgerService(transactionRepo portsrepo.TransactionRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade) *LedgerService {
	return &LedgerService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

// ownedActiveAccount loads the account and verifies it belongs to userID and
// is active. Foreign and inactive accounts both read as not found, so account
// IDs never leak and a deactivated account is indistinguishable from a
// missing one.
func (s *LedgerService) ownedActiveAccount(ctx context.Context, userID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", apperrors.ErrNotFound)
	}
	return account, nil
}

// ApplyNew normalizes and persists a new transaction, adjusting the account
// balance in the same database transaction.
func (s *LedgerService) ApplyNew(ctx context.Context, userID string, txn domain.Transaction) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.ownedActiveAccount(ctx, userID, txn.AccountID); err != nil {
		return nil, err
	}

	txn.UserID = userID
	txn.Amount = domain.NormalizeAmount(txn.Amount, txn.Type)
	txn.IsUrgent = domain.Urgent(txn.Amount)

	saved, err := s.transactionRepo.CreateTransaction(ctx, txn)
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			logger.Error("Failed to apply new transaction", slog.String("error", err.Error()), slog.String("account_id", txn.AccountID))
		}
		return nil, err
	}
	logger.Info("Transaction applied", slog.String("transaction_id", saved.TransactionID), slog.String("account_id", saved.AccountID))
	return saved, nil
}

// Amend replaces a stored transaction with its updated form. The account
// balance shifts by the amount difference and every downstream snapshot is
// recomputed.
func (s *LedgerService) Amend(ctx context.Context, userID string, existing domain.Transaction, updated domain.Transaction) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.ownedActiveAccount(ctx, userID, existing.AccountID); err != nil {
		return nil, err
	}

	updated.TransactionID = existing.TransactionID
	updated.UserID = existing.UserID
	updated.AccountID = existing.AccountID
	updated.Amount = domain.NormalizeAmount(updated.Amount, updated.Type)
	updated.IsUrgent = domain.Urgent(updated.Amount)

	amountDelta := updated.Amount.Sub(existing.Amount)

	saved, err := s.transactionRepo.UpdateTransaction(ctx, updated, amountDelta)
	if err != nil {
		logger.Error("Failed to amend transaction", slog.String("error", err.Error()), slog.String("transaction_id", existing.TransactionID))
		return nil, err
	}
	logger.Info("Transaction amended", slog.String("transaction_id", saved.TransactionID), slog.String("amount_delta", amountDelta.String()))
	return saved, nil
}

// ReconcileBalance absorbs drift between the local balance and a
// provider-reported target by shifting the opening balance, so the recorded
// transaction history stays intact while the totals line up again.
func (s *LedgerService) ReconcileBalance(ctx context.Context, userID string, accountID string, target decimal.Decimal) (bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.ownedActiveAccount(ctx, userID, accountID)
	if err != nil {
		return false, err
	}

	delta := target.Sub(account.Balance)
	if delta.IsZero() {
		return false, nil
	}

	if err := s.transactionRepo.ShiftOpeningBalance(ctx, accountID, delta, userID, time.Now()); err != nil {
		logger.Error("Failed to reconcile account balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return false, err
	}
	logger.Info("Account balance reconciled", slog.String("account_id", accountID), slog.String("delta", delta.String()))
	return true, nil
}

// Remove deletes a transaction and reverts its effect on the account balance.
func (s *LedgerService) Remove(ctx context.Context, userID string, existing domain.Transaction) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.ownedActiveAccount(ctx, userID, existing.AccountID); err != nil {
		return err
	}

	if err := s.transactionRepo.DeleteTransaction(ctx, existing); err != nil {
		logger.Error("Failed to remove transaction", slog.String("error", err.Error()), slog.String("transaction_id", existing.TransactionID))
		return err
	}
	logger.Info("Transaction removed", slog.String("transaction_id", existing.TransactionID))
	return nil
}
