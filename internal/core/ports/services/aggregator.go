package services

import (
	"context"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AggregatorAccount is an account as reported by the bank aggregator.
type AggregatorAccount struct {
	ProviderAccountID string
	Name              string
	Mask              string
	Type              domain.AccountType
	Balance           decimal.Decimal
	CurrencyCode      string
}

// AggregatorTransaction is a transaction as reported by the aggregator.
// Amount follows the aggregator convention: positive means money out.
type AggregatorTransaction struct {
	ProviderTransactionID string
	ProviderAccountID     string
	Amount                decimal.Decimal
	Date                  time.Time
	Description           string
	Category              string
}

// TransactionDelta is one page of the aggregator's transaction sync stream.
type TransactionDelta struct {
	Added      []AggregatorTransaction
	Modified   []AggregatorTransaction
	Removed    []string // provider transaction ids
	NextCursor string
	HasMore    bool
}

// AggregatorIdentity is the account holder identity held by the aggregator.
type AggregatorIdentity struct {
	Name  string
	Email string
}

// BankAggregator abstracts the external bank-linking provider. The Plaid
// adapter implements it; tests substitute a mock.
type BankAggregator interface {
	// CreateLinkToken starts a link flow for the given user.
	CreateLinkToken(ctx context.Context, userID string) (string, error)

	// ExchangePublicToken trades the public token from a completed link flow
	// for a persistent access token and the provider item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken string, itemID string, err error)

	// FetchAccounts lists the accounts reachable through an access token.
	FetchAccounts(ctx context.Context, accessToken string) ([]AggregatorAccount, error)

	// SyncTransactions pulls the next page of transaction changes after cursor.
	SyncTransactions(ctx context.Context, accessToken string, cursor string) (*TransactionDelta, error)

	// FetchIdentity returns the account holder identity for an access token.
	FetchIdentity(ctx context.Context, accessToken string) (*AggregatorIdentity, error)

	// VerifyWebhook checks the provider's signature over a raw webhook body.
	// A non-nil error means the delivery must be rejected.
	VerifyWebhook(ctx context.Context, body []byte, signatureJWT string) error
}
