// Package aggregator contains the bank-aggregator adapters. The Plaid
// adapter is the production implementation of the BankAggregator port.
package aggregator

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/platform/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

// PlaidAggregator implements the BankAggregator port on the Plaid API.
type PlaidAggregator struct {
	client *plaid.APIClient
	cfg    *config.Config
}

// NewPlaidAggregator creates the Plaid-backed aggregator from configuration.
func NewPlaidAggregator(cfg *config.Config) *PlaidAggregator {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.PlaidClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.PlaidSecret)
	switch cfg.PlaidEnvironment {
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		configuration.UseEnvironment(plaid.Sandbox)
	}

	return &PlaidAggregator{
		client: plaid.NewAPIClient(configuration),
		cfg:    cfg,
	}
}

var _ portssvc.BankAggregator = (*PlaidAggregator)(nil)

// CreateLinkToken starts a link flow for the given user.
func (p *PlaidAggregator) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	user := plaid.NewLinkTokenCreateRequestUser(userID)
	request := plaid.NewLinkTokenCreateRequest(
		"Finbook",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US, plaid.COUNTRYCODE_GB},
		*user,
	)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := p.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("plaid link token create: %w", err)
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken trades the public token for a persistent access token.
func (p *PlaidAggregator) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := p.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", fmt.Errorf("plaid public token exchange: %w", err)
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

// mapAccountType translates Plaid account types into the local set.
func mapAccountType(t plaid.AccountType, subtype string) domain.AccountType {
	switch t {
	case plaid.ACCOUNTTYPE_DEPOSITORY:
		if subtype == "savings" {
			return domain.Savings
		}
		return domain.Checking
	case plaid.ACCOUNTTYPE_CREDIT:
		return domain.Credit
	case plaid.ACCOUNTTYPE_INVESTMENT, plaid.ACCOUNTTYPE_BROKERAGE:
		return domain.Investment
	default:
		return domain.Cash
	}
}

// FetchAccounts lists the accounts reachable through an access token.
func (p *PlaidAggregator) FetchAccounts(ctx context.Context, accessToken string) ([]portssvc.AggregatorAccount, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := p.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid accounts get: %w", err)
	}

	accounts := make([]portssvc.AggregatorAccount, 0, len(resp.GetAccounts()))
	for _, a := range resp.GetAccounts() {
		balances := a.GetBalances()
		currency := balances.GetIsoCurrencyCode()
		if currency == "" {
			currency = "USD"
		}
		accounts = append(accounts, portssvc.AggregatorAccount{
			ProviderAccountID: a.GetAccountId(),
			Name:              a.GetName(),
			Mask:              a.GetMask(),
			Type:              mapAccountType(a.GetType(), string(a.GetSubtype())),
			Balance:           decimal.NewFromFloat(balances.GetCurrent()),
			CurrencyCode:      currency,
		})
	}
	return accounts, nil
}

// toAggregatorTransaction converts one Plaid transaction. Plaid dates are
// plain YYYY-MM-DD strings.
func toAggregatorTransaction(t plaid.Transaction) (portssvc.AggregatorTransaction, error) {
	date, err := time.Parse("2006-01-02", t.GetDate())
	if err != nil {
		return portssvc.AggregatorTransaction{}, fmt.Errorf("plaid transaction %s: bad date %q: %w", t.GetTransactionId(), t.GetDate(), err)
	}
	return portssvc.AggregatorTransaction{
		ProviderTransactionID: t.GetTransactionId(),
		ProviderAccountID:     t.GetAccountId(),
		Amount:                decimal.NewFromFloat(t.GetAmount()),
		Date:                  date,
		Description:           t.GetName(),
		Category:              t.GetPersonalFinanceCategory().Primary,
	}, nil
}

// SyncTransactions pulls the next page of transaction changes after cursor.
func (p *PlaidAggregator) SyncTransactions(ctx context.Context, accessToken string, cursor string) (*portssvc.TransactionDelta, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := p.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid transactions sync: %w", err)
	}

	delta := &portssvc.TransactionDelta{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}
	for _, t := range resp.GetAdded() {
		txn, err := toAggregatorTransaction(t)
		if err != nil {
			return nil, err
		}
		delta.Added = append(delta.Added, txn)
	}
	for _, t := range resp.GetModified() {
		txn, err := toAggregatorTransaction(t)
		if err != nil {
			return nil, err
		}
		delta.Modified = append(delta.Modified, txn)
	}
	for _, r := range resp.GetRemoved() {
		delta.Removed = append(delta.Removed, r.GetTransactionId())
	}
	return delta, nil
}

// webhookVerificationMaxAge bounds how stale a webhook signature may be.
const webhookVerificationMaxAge = 5 * time.Minute

// webhookKey fetches the ES256 public key Plaid signed the webhook with.
func (p *PlaidAggregator) webhookKey(ctx context.Context, keyID string) (*ecdsa.PublicKey, error) {
	request := plaid.NewWebhookVerificationKeyGetRequest(keyID)
	resp, _, err := p.client.PlaidApi.WebhookVerificationKeyGet(ctx).WebhookVerificationKeyGetRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid webhook verification key get: %w", err)
	}

	key := resp.GetKey()
	xBytes, err := base64.RawURLEncoding.DecodeString(key.GetX())
	if err != nil {
		return nil, fmt.Errorf("plaid webhook key %s: bad x coordinate: %w", keyID, err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(key.GetY())
	if err != nil {
		return nil, fmt.Errorf("plaid webhook key %s: bad y coordinate: %w", keyID, err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// VerifyWebhook validates the Plaid-Verification JWT over a raw webhook body.
// The token is ES256-signed with a key fetched by kid, carries an iat that
// must be fresh, and pins the body through its request_body_sha256 claim.
func (p *PlaidAggregator) VerifyWebhook(ctx context.Context, body []byte, signatureJWT string) error {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signatureJWT, claims, func(t *jwt.Token) (interface{}, error) {
		keyID, ok := t.Header["kid"].(string)
		if !ok || keyID == "" {
			return nil, fmt.Errorf("plaid webhook signature missing kid header")
		}
		return p.webhookKey(ctx, keyID)
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		return fmt.Errorf("plaid webhook signature invalid: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("plaid webhook signature invalid")
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return fmt.Errorf("plaid webhook signature missing iat")
	}
	if time.Since(issuedAt.Time) > webhookVerificationMaxAge {
		return fmt.Errorf("plaid webhook signature expired: issued %s", issuedAt.Time.Format(time.RFC3339))
	}

	claimed, _ := claims["request_body_sha256"].(string)
	digest := sha256.Sum256(body)
	if claimed != hex.EncodeToString(digest[:]) {
		return fmt.Errorf("plaid webhook body digest mismatch")
	}
	return nil
}

// FetchIdentity returns the primary account holder identity.
func (p *PlaidAggregator) FetchIdentity(ctx context.Context, accessToken string) (*portssvc.AggregatorIdentity, error) {
	request := plaid.NewIdentityGetRequest(accessToken)
	resp, _, err := p.client.PlaidApi.IdentityGet(ctx).IdentityGetRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid identity get: %w", err)
	}

	identity := &portssvc.AggregatorIdentity{}
	for _, account := range resp.GetAccounts() {
		for _, owner := range account.GetOwners() {
			if names := owner.GetNames(); len(names) > 0 && identity.Name == "" {
				identity.Name = names[0]
			}
			for _, email := range owner.GetEmails() {
				if email.GetPrimary() && identity.Email == "" {
					identity.Email = email.GetData()
				}
			}
		}
		if identity.Name != "" {
			break
		}
	}
	return identity, nil
}
