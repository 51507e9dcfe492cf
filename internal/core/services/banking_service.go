package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/google/uuid"
)

// BankingService drives the aggregator integration: link flows, account and
// transaction sync, and webhooks. Every sync run claims a persisted job row
// first, so concurrent runs for the same user and scope are rejected at the
// database even across server instances. Imported transactions flow through
// the same ledger as manual ones.
type BankingService struct {
	aggregator  portssvc.BankAggregator
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	userRepo    portsrepo.UserRepositoryFacade
	syncJobRepo portsrepo.SyncJobRepositoryFacade
	ledger      portssvc.LedgerSvcFacade
	classifier  portssvc.Classifier
}

// NewBankingService creates the aggregator-facing service.
func NewBankingService(
	aggregator portssvc.BankAggregator,
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	userRepo portsrepo.UserRepositoryFacade,
	syncJobRepo portsrepo.SyncJobRepositoryFacade,
	ledger portssvc.LedgerSvcFacade,
	classifier portssvc.Classifier,
) *BankingService {
	return &BankingService{
		aggregator:  aggregator,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		userRepo:    userRepo,
		syncJobRepo: syncJobRepo,
		ledger:      ledger,
		classifier:  classifier,
	}
}

var _ portssvc.BankingSvcFacade = (*BankingService)(nil)

// CreateLinkToken starts a bank-link flow for the caller.
func (s *BankingService) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	return s.aggregator.CreateLinkToken(ctx, userID)
}

// ExchangePublicToken completes a link flow: trades the public token for an
// access token and creates one linked account per aggregator account.
func (s *BankingService) ExchangePublicToken(ctx context.Context, userID string, req dto.ExchangePublicTokenRequest) ([]domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accessToken, itemID, err := s.aggregator.ExchangePublicToken(ctx, req.PublicToken)
	if err != nil {
		logger.Error("Failed to exchange public token", slog.String("error", err.Error()))
		return nil, err
	}

	remoteAccounts, err := s.aggregator.FetchAccounts(ctx, accessToken)
	if err != nil {
		logger.Error("Failed to fetch linked accounts", slog.String("error", err.Error()))
		return nil, err
	}

	now := time.Now()
	created := make([]domain.Account, 0, len(remoteAccounts))
	for _, remote := range remoteAccounts {
		// Re-linking an already known provider account refreshes its link
		// instead of creating a duplicate.
		existing, err := s.accountRepo.FindAccountByProviderID(ctx, userID, remote.ProviderAccountID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		link := domain.BankLink{
			ProviderItemID:    itemID,
			ProviderAccountID: remote.ProviderAccountID,
			AccessToken:       accessToken,
			Status:            domain.LinkActive,
			LastSyncedAt:      &now,
		}
		if existing != nil {
			if err := s.accountRepo.UpdateBankLink(ctx, existing.AccountID, link, userID, now); err != nil {
				return nil, err
			}
			existing.Link = link
			created = append(created, *existing)
			continue
		}

		name := remote.Name
		if remote.Mask != "" {
			name = fmt.Sprintf("%s (…%s)", remote.Name, remote.Mask)
		}
		account := domain.Account{
			AccountID:      uuid.NewString(),
			UserID:         userID,
			Name:           name,
			AccountType:    remote.Type,
			CurrencyCode:   remote.CurrencyCode,
			OpeningBalance: remote.Balance,
			Balance:        remote.Balance,
			IsActive:       true,
			Link:           link,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			return nil, err
		}
		created = append(created, account)
	}

	logger.Info("Bank link established", slog.String("item_id", itemID), slog.Int("accounts", len(created)))
	return created, nil
}

// runJob claims a sync job for (userID, scope), executes fn, and records the
// terminal state. fn mutates the job counters in place.
func (s *BankingService) runJob(ctx context.Context, userID string, scope domain.SyncScope, fn func(job *domain.SyncJob) error) (*domain.SyncJob, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	job, err := s.syncJobRepo.ClaimJob(ctx, userID, scope, time.Now())
	if err != nil {
		return nil, err
	}

	runErr := fn(job)
	if runErr != nil {
		job.Status = domain.SyncFailed
		job.Error = runErr.Error()
		logger.Error("Sync job failed", slog.String("job_id", job.JobID), slog.String("scope", string(scope)), slog.String("error", runErr.Error()))
	} else {
		job.Status = domain.SyncCompleted
	}

	if err := s.syncJobRepo.FinishJob(ctx, job, time.Now()); err != nil {
		logger.Error("Failed to record sync job result", slog.String("job_id", job.JobID), slog.String("error", err.Error()))
		return nil, err
	}
	if runErr != nil {
		return job, runErr
	}
	logger.Info("Sync job completed", slog.String("job_id", job.JobID), slog.String("scope", string(scope)),
		slog.Int("added", job.Added), slog.Int("updated", job.Updated), slog.Int("removed", job.Removed))
	return job, nil
}

// SyncAccounts refreshes balances and link metadata for every linked account.
// Balance drift against the provider is reconciled by shifting the opening
// balance, so local transaction history keeps its snapshots intact.
func (s *BankingService) SyncAccounts(ctx context.Context, userID string) (*domain.SyncJob, error) {
	return s.runJob(ctx, userID, domain.SyncAccounts, func(job *domain.SyncJob) error {
		accounts, err := s.accountRepo.ListLinkedAccounts(ctx, userID)
		if err != nil {
			return err
		}

		// Group by access token: one provider item covers several accounts.
		byToken := make(map[string][]domain.Account)
		for _, acc := range accounts {
			byToken[acc.Link.AccessToken] = append(byToken[acc.Link.AccessToken], acc)
		}

		now := time.Now()
		for token, linked := range byToken {
			remote, err := s.aggregator.FetchAccounts(ctx, token)
			if err != nil {
				if markErr := s.markLinkError(ctx, linked, userID, now); markErr != nil {
					return markErr
				}
				return err
			}
			remoteByID := make(map[string]portssvc.AggregatorAccount, len(remote))
			for _, r := range remote {
				remoteByID[r.ProviderAccountID] = r
			}
			for _, acc := range linked {
				r, ok := remoteByID[acc.Link.ProviderAccountID]
				if !ok {
					continue
				}
				link := acc.Link
				link.Status = domain.LinkActive
				link.LastSyncedAt = &now
				if err := s.accountRepo.UpdateBankLink(ctx, acc.AccountID, link, userID, now); err != nil {
					return err
				}
				shifted, err := s.ledger.ReconcileBalance(ctx, userID, acc.AccountID, r.Balance)
				if err != nil {
					return err
				}
				if shifted {
					job.Updated++
				}
			}
		}
		return nil
	})
}

// markLinkError flags every account of a failed item so clients can prompt a
// re-link.
func (s *BankingService) markLinkError(ctx context.Context, accounts []domain.Account, userID string, now time.Time) error {
	for _, acc := range accounts {
		link := acc.Link
		link.Status = domain.LinkError
		if err := s.accountRepo.UpdateBankLink(ctx, acc.AccountID, link, userID, now); err != nil {
			return err
		}
	}
	return nil
}

// SyncTransactions imports transaction deltas for every linked account. The
// provider transaction id keys the upsert, so re-delivered pages are
// idempotent. All writes go through the ledger.
func (s *BankingService) SyncTransactions(ctx context.Context, userID string) (*domain.SyncJob, error) {
	return s.runJob(ctx, userID, domain.SyncTransactions, func(job *domain.SyncJob) error {
		accounts, err := s.accountRepo.ListLinkedAccounts(ctx, userID)
		if err != nil {
			return err
		}

		type tokenGroup struct {
			cursor   string
			accounts map[string]domain.Account // by provider account id
		}
		byToken := make(map[string]*tokenGroup)
		for _, acc := range accounts {
			g, ok := byToken[acc.Link.AccessToken]
			if !ok {
				g = &tokenGroup{cursor: acc.Link.SyncCursor, accounts: map[string]domain.Account{}}
				byToken[acc.Link.AccessToken] = g
			}
			g.accounts[acc.Link.ProviderAccountID] = acc
		}

		now := time.Now()
		for token, group := range byToken {
			cursor := group.cursor
			for {
				delta, err := s.aggregator.SyncTransactions(ctx, token, cursor)
				if err != nil {
					return err
				}

				for _, remote := range delta.Added {
					added, err := s.upsertRemoteTransaction(ctx, userID, group.accounts, remote)
					if err != nil {
						return err
					}
					if added {
						job.Added++
					} else {
						job.Updated++
					}
				}
				for _, remote := range delta.Modified {
					if _, err := s.upsertRemoteTransaction(ctx, userID, group.accounts, remote); err != nil {
						return err
					}
					job.Updated++
				}
				for _, providerTxnID := range delta.Removed {
					removed, err := s.removeRemoteTransaction(ctx, userID, group.accounts, providerTxnID)
					if err != nil {
						return err
					}
					if removed {
						job.Removed++
					}
				}

				cursor = delta.NextCursor
				if !delta.HasMore {
					break
				}
			}

			// Persist the cursor on every account of the item.
			for _, acc := range group.accounts {
				link := acc.Link
				link.SyncCursor = cursor
				link.Status = domain.LinkActive
				link.LastSyncedAt = &now
				if err := s.accountRepo.UpdateBankLink(ctx, acc.AccountID, link, userID, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// upsertRemoteTransaction creates or amends the local row for one aggregator
// transaction. Returns true when a new row was created.
func (s *BankingService) upsertRemoteTransaction(ctx context.Context, userID string, accounts map[string]domain.Account, remote portssvc.AggregatorTransaction) (bool, error) {
	account, ok := accounts[remote.ProviderAccountID]
	if !ok {
		// Transaction for an account the user never linked locally.
		return false, nil
	}

	// Aggregator convention is positive-out; ours is signed by type.
	txType := domain.Expense
	if remote.Amount.IsNegative() {
		txType = domain.Income
	}
	magnitude := remote.Amount.Abs()

	category := mapRemoteCategory(remote.Category)
	status := domain.ClassifiedByRule
	confidence := 0.7
	if category == "" {
		classification, err := s.classifier.Classify(ctx, remote.Description, domain.NormalizeAmount(magnitude, txType))
		if err == nil {
			category = classification.Category
			status = classification.Source
			confidence = classification.Confidence
		} else {
			category = domain.CategoryOther
			confidence = 0
		}
	}

	now := time.Now()
	existing, err := s.txnRepo.FindTransactionByExternalID(ctx, account.AccountID, remote.ProviderTransactionID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	if existing != nil {
		updated := *existing
		updated.Amount = magnitude
		updated.Type = txType
		updated.Description = remote.Description
		updated.Date = remote.Date
		updated.LastUpdatedAt = now
		updated.LastUpdatedBy = userID
		// A user-picked category outranks anything the provider says.
		if existing.ClassificationStatus != domain.ClassifiedByUser {
			updated.Category = category
			updated.ClassificationStatus = status
			updated.ClassificationConfidence = confidence
		}
		if _, err := s.ledger.Amend(ctx, userID, *existing, updated); err != nil {
			return false, err
		}
		return false, nil
	}

	txn := domain.Transaction{
		TransactionID:            uuid.NewString(),
		AccountID:                account.AccountID,
		Amount:                   magnitude,
		Type:                     txType,
		Category:                 category,
		Description:              remote.Description,
		Date:                     remote.Date,
		ExternalID:               remote.ProviderTransactionID,
		ClassificationStatus:     status,
		ClassificationConfidence: confidence,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if _, err := s.ledger.ApplyNew(ctx, userID, txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a race with a concurrent import of the same row.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// removeRemoteTransaction deletes the local row for a provider id, if present.
func (s *BankingService) removeRemoteTransaction(ctx context.Context, userID string, accounts map[string]domain.Account, providerTxnID string) (bool, error) {
	for _, account := range accounts {
		existing, err := s.txnRepo.FindTransactionByExternalID(ctx, account.AccountID, providerTxnID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return false, err
		}
		existing.LastUpdatedBy = userID
		if err := s.ledger.Remove(ctx, userID, *existing); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// SyncUser refreshes the account-holder identity from the aggregator.
func (s *BankingService) SyncUser(ctx context.Context, userID string) (*domain.SyncJob, error) {
	return s.runJob(ctx, userID, domain.SyncUser, func(job *domain.SyncJob) error {
		accounts, err := s.accountRepo.ListLinkedAccounts(ctx, userID)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return nil
		}

		identity, err := s.aggregator.FetchIdentity(ctx, accounts[0].Link.AccessToken)
		if err != nil {
			return err
		}
		if identity.Name == "" {
			return nil
		}

		user, err := s.userRepo.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Name == identity.Name {
			return nil
		}
		user.Name = identity.Name
		user.LastUpdatedAt = time.Now()
		user.LastUpdatedBy = userID
		if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
			return err
		}
		job.Updated++
		return nil
	})
}

// GetSyncStatus returns the latest sync job for (userID, scope).
func (s *BankingService) GetSyncStatus(ctx context.Context, userID string, scope domain.SyncScope) (*domain.SyncJob, error) {
	return s.syncJobRepo.FindLatestJob(ctx, userID, scope)
}

// RunScheduledSync refreshes balances and imports transactions for every user
// with linked accounts. A sync already running for a user is skipped, and one
// user's failure does not stop the rest.
func (s *BankingService) RunScheduledSync(ctx context.Context) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	userIDs, err := s.accountRepo.ListUsersWithLinkedAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for scheduled sync: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := s.SyncAccounts(ctx, userID); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			logger.Error("Scheduled account sync failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
		if _, err := s.SyncTransactions(ctx, userID); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			logger.Error("Scheduled transaction sync failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
	}
	return nil
}

// VerifyWebhook checks the aggregator's signature over a raw webhook body.
func (s *BankingService) VerifyWebhook(ctx context.Context, body []byte, signatureJWT string) error {
	return s.aggregator.VerifyWebhook(ctx, body, signatureJWT)
}

// HandleWebhook reacts to an aggregator webhook. Transaction webhooks trigger
// a transaction sync for the item's owner; item errors flag the link.
func (s *BankingService) HandleWebhook(ctx context.Context, req dto.AggregatorWebhookRequest) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.findAccountByItemID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Webhook for an item nobody owns anymore. Acknowledge and move on.
			logger.Warn("Webhook for unknown item", slog.String("item_id", req.ItemID))
			return nil
		}
		return err
	}

	switch req.WebhookType {
	case "TRANSACTIONS":
		_, err := s.SyncTransactions(ctx, account.UserID)
		if errors.Is(err, apperrors.ErrConflict) {
			// A sync is already running; it will pick up these changes.
			return nil
		}
		return err
	case "ITEM":
		if req.WebhookCode == "ERROR" || req.WebhookCode == "PENDING_EXPIRATION" {
			now := time.Now()
			accounts, err := s.accountRepo.ListLinkedAccounts(ctx, account.UserID)
			if err != nil {
				return err
			}
			status := domain.LinkError
			if req.WebhookCode == "PENDING_EXPIRATION" {
				status = domain.LinkExpired
			}
			for _, acc := range accounts {
				if acc.Link.ProviderItemID != req.ItemID {
					continue
				}
				link := acc.Link
				link.Status = status
				if err := s.accountRepo.UpdateBankLink(ctx, acc.AccountID, link, account.UserID, now); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		logger.Debug("Ignoring webhook", slog.String("type", req.WebhookType), slog.String("code", req.WebhookCode))
		return nil
	}
}

// findAccountByItemID locates any account linked to a provider item. Webhooks
// carry no user id, so the item is the only handle.
func (s *BankingService) findAccountByItemID(ctx context.Context, itemID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByProviderItemID(ctx, itemID)
}

// mapRemoteCategory translates an aggregator category string into the closed
// local set. Unknown values return "" so the classifier decides.
func mapRemoteCategory(remote string) domain.Category {
	switch strings.ToUpper(strings.ReplaceAll(remote, " ", "_")) {
	case "FOOD_AND_DRINK", "RESTAURANTS":
		return domain.CategoryDining
	case "GROCERIES":
		return domain.CategoryGroceries
	case "TRANSPORTATION", "TRAVEL_TAXI":
		return domain.CategoryTransport
	case "TRAVEL":
		return domain.CategoryTravel
	case "RENT_AND_UTILITIES", "UTILITIES":
		return domain.CategoryUtilities
	case "RENT":
		return domain.CategoryRent
	case "ENTERTAINMENT", "RECREATION":
		return domain.CategoryEntertainment
	case "MEDICAL", "HEALTHCARE":
		return domain.CategoryHealth
	case "GENERAL_MERCHANDISE", "SHOPS":
		return domain.CategoryShopping
	case "INCOME", "PAYROLL":
		return domain.CategorySalary
	case "INVESTMENT":
		return domain.CategoryInvestment
	case "TRANSFER_IN", "TRANSFER_OUT", "TRANSFER":
		return domain.CategoryTransfer
	case "BANK_FEES", "FEES":
		return domain.CategoryFees
	default:
		return ""
	}
}
