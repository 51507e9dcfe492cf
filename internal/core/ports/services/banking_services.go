package services

import (
	"context"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/dto"
)

// BankingSvcFacade is the bank-aggregator integration surface. Account and
// transaction upserts performed here go through the same ledger balance
// maintainer as user-driven CRUD.
type BankingSvcFacade interface {
	// CreateLinkToken starts a bank-link flow for the caller.
	CreateLinkToken(ctx context.Context, userID string) (string, error)

	// ExchangePublicToken completes a link flow: stores the access token and
	// upserts the linked accounts.
	ExchangePublicToken(ctx context.Context, userID string, req dto.ExchangePublicTokenRequest) ([]domain.Account, error)

	// SyncAccounts refreshes balances and link metadata for every linked account.
	SyncAccounts(ctx context.Context, userID string) (*domain.SyncJob, error)

	// SyncTransactions imports transaction deltas for every linked account,
	// idempotently keyed by the provider transaction id.
	SyncTransactions(ctx context.Context, userID string) (*domain.SyncJob, error)

	// SyncUser refreshes the account-holder identity from the aggregator.
	SyncUser(ctx context.Context, userID string) (*domain.SyncJob, error)

	// GetSyncStatus returns the latest sync job for (userID, scope).
	GetSyncStatus(ctx context.Context, userID string, scope domain.SyncScope) (*domain.SyncJob, error)

	// RunScheduledSync runs an account and transaction sync for every user
	// with linked accounts. Used by the background scheduler.
	RunScheduledSync(ctx context.Context) error

	// VerifyWebhook checks the aggregator's signature over a raw webhook
	// body before the payload is trusted.
	VerifyWebhook(ctx context.Context, body []byte, signatureJWT string) error

	// HandleWebhook reacts to an aggregator webhook for a provider item.
	HandleWebhook(ctx context.Context, req dto.AggregatorWebhookRequest) error
}
