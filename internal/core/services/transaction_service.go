package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/finbook/finbook_backend/internal/utils/pagination"
	"github.com/google/uuid"
)

// TransactionService implements the transaction CRUD surface. All mutations
// delegate to the ledger so balances stay consistent; uncategorized creates
// run the classifier first.
type TransactionService struct {
	transactionRepo portsrepo.TransactionRepositoryFacade
	ledger          portssvc.LedgerSvcFacade
	classifier      portssvc.Classifier
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(transactionRepo portsrepo.TransactionRepositoryFacade, ledger portssvc.LedgerSvcFacade, classifier portssvc.Classifier) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		ledger:          ledger,
		classifier:      classifier,
	}
}

var _ portssvc.TransactionSvcFacade = (*TransactionService)(nil)

// GetTransactionByID retrieves a transaction, enforcing caller ownership.
func (s *TransactionService) GetTransactionByID(ctx context.Context, transactionID string, userID string) (*domain.Transaction, error) {
	txn, err := s.transactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		// Foreign transactions read as not found so IDs never leak.
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

// parseDateFilter parses a YYYY-MM-DD query value; empty means no bound.
func parseDateFilter(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", apperrors.ErrValidation, value)
	}
	return &t, nil
}

// ListTransactions returns one page of transactions plus pagination metadata.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	page := params.Params
	page.Sanitize()

	if params.Category != "" && !domain.ValidCategory(domain.Category(params.Category)) {
		return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, params.Category)
	}
	startDate, err := parseDateFilter(params.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDateFilter(params.EndDate)
	if err != nil {
		return nil, err
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, fmt.Errorf("%w: endDate precedes startDate", apperrors.ErrValidation)
	}

	filter := portsrepo.TransactionFilter{
		UserID:    userID,
		AccountID: params.AccountID,
		Type:      domain.TransactionType(params.Type),
		Category:  domain.Category(params.Category),
		StartDate: startDate,
		EndDate:   endDate,
		Search:    params.Search,
		Limit:     page.Limit,
		Offset:    page.Offset(),
	}

	txns, total, err := s.transactionRepo.ListTransactions(ctx, filter)
	if err != nil {
		logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		return nil, err
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		Pagination:   pagination.NewMeta(page, total),
	}, nil
}

// CreateTransaction records a new manual transaction. When the caller omits
// the category, the classifier picks one and the classification metadata is
// stored alongside the row.
func (s *TransactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     req.AccountID,
		Amount:        req.Amount,
		Type:          req.Type,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
		Tags:          req.Tags,
		Location:      req.Location,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if req.Category != "" {
		if !domain.ValidCategory(req.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, req.Category)
		}
		txn.ClassificationStatus = domain.ClassifiedByUser
		txn.ClassificationConfidence = 1.0
	} else {
		classification, err := s.classifier.Classify(ctx, req.Description, domain.NormalizeAmount(req.Amount, req.Type))
		if err != nil {
			// Classification is best effort; fall back to OTHER.
			logger.Warn("Classifier failed, defaulting category", slog.String("error", err.Error()))
			classification = &portssvc.Classification{
				Category:   domain.CategoryOther,
				Confidence: 0,
				Source:     domain.ClassifiedByRule,
			}
		}
		txn.Category = classification.Category
		txn.ClassificationStatus = classification.Source
		txn.ClassificationConfidence = classification.Confidence
	}

	return s.ledger.ApplyNew(ctx, userID, txn)
}

// UpdateTransaction amends an existing transaction through the ledger.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest, userID string) (*domain.Transaction, error) {
	existing, err := s.GetTransactionByID(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Amount != nil {
		updated.Amount = *req.Amount
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Category != nil {
		if !domain.ValidCategory(*req.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, *req.Category)
		}
		updated.Category = *req.Category
		updated.ClassificationStatus = domain.ClassifiedByUser
		updated.ClassificationConfidence = 1.0
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Date != nil {
		updated.Date = *req.Date
	}
	if req.Tags != nil {
		updated.Tags = req.Tags
	}
	if req.Location != nil {
		updated.Location = *req.Location
	}
	updated.LastUpdatedAt = time.Now()
	updated.LastUpdatedBy = userID

	return s.ledger.Amend(ctx, userID, *existing, updated)
}

// DeleteTransaction removes a transaction through the ledger.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string, userID string) error {
	existing, err := s.GetTransactionByID(ctx, transactionID, userID)
	if err != nil {
		return err
	}
	existing.LastUpdatedAt = time.Now()
	existing.LastUpdatedBy = userID
	return s.ledger.Remove(ctx, userID, *existing)
}
