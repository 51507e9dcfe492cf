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
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/google/uuid"
)

// AccountService implements account CRUD plus the aggregate overview. The
// delete path is split: accounts with transaction history are deactivated so
// the ledger keeps its audit trail, empty accounts are removed outright.
type AccountService struct {
	accountRepo     portsrepo.AccountRepositoryFacade
	transactionRepo portsrepo.TransactionRepositoryFacade
	currencyRepo    portsrepo.CurrencyRepositoryFacade
	reportingRepo   portsrepo.ReportingRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(
	accountRepo portsrepo.AccountRepositoryFacade,
	transactionRepo portsrepo.TransactionRepositoryFacade,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	reportingRepo portsrepo.ReportingRepositoryFacade,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		currencyRepo:    currencyRepo,
		reportingRepo:   reportingRepo,
	}
}

var _ portssvc.AccountSvcFacade = (*AccountService)(nil)

// CreateAccount persists a new manual account after validating the currency.
func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, err
	}

	now := time.Now()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		AccountType:    req.AccountType,
		CurrencyCode:   req.CurrencyCode,
		OpeningBalance: req.OpeningBalance,
		Balance:        req.OpeningBalance,
		Color:          req.Color,
		Description:    req.Description,
		IsActive:       true,
		Link:           domain.BankLink{Status: domain.LinkNone},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID))
	return &account, nil
}

// GetAccountByID retrieves an account, enforcing caller ownership.
func (s *AccountService) GetAccountByID(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return account, nil
}

// ListAccounts retrieves the caller's accounts.
func (s *AccountService) ListAccounts(ctx context.Context, userID string, includeInactive bool) ([]domain.Account, error) {
	return s.accountRepo.ListAccountsByUser(ctx, userID, includeInactive)
}

// UpdateAccount updates name/description/color.
func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Color != nil {
		account.Color = *req.Color
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	account.LastUpdatedAt = time.Now()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, err
	}
	return account, nil
}

// DeleteAccount soft-deletes accounts with transaction history and
// hard-deletes empty ones.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, accountID, userID)
	if err != nil {
		return err
	}

	count, err := s.transactionRepo.CountTransactionsByAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if count > 0 {
		if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now()); err != nil {
			logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
			return err
		}
		logger.Info("Account deactivated", slog.String("account_id", accountID), slog.Int64("transactions", count))
		return nil
	}

	if err := s.accountRepo.DeleteAccount(ctx, accountID); err != nil {
		logger.Error("Failed to delete account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return err
	}
	logger.Info("Account deleted", slog.String("account_id", account.AccountID))
	return nil
}

// GetOverview returns balance totals per account type and net worth.
func (s *AccountService) GetOverview(ctx context.Context, userID string) (*domain.AccountsOverview, error) {
	return s.reportingRepo.AccountsOverview(ctx, userID)
}
