package dto

import (
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a manual account.
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required"`
	AccountType    domain.AccountType `json:"accountType" binding:"required,oneof=CHECKING SAVINGS CREDIT INVESTMENT CASH"`
	CurrencyCode   string             `json:"currencyCode" binding:"required,len=3"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	Color          string             `json:"color"`
	Description    string             `json:"description"`
}

// UpdateAccountRequest defines the fields a user may edit directly.
// Pointers distinguish "not provided" from zero values. Balance is absent on
// purpose: it only moves through the ledger.
type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountID      string             `json:"accountID"`
	Name           string             `json:"name"`
	AccountType    domain.AccountType `json:"accountType"`
	CurrencyCode   string             `json:"currencyCode"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	Balance        decimal.Decimal    `json:"balance"`
	Color          string             `json:"color"`
	Description    string             `json:"description"`
	IsActive       bool               `json:"isActive"`
	IsLinked       bool               `json:"isLinked"`
	LinkStatus     domain.LinkStatus  `json:"linkStatus"`
	LastSyncedAt   *time.Time         `json:"lastSyncedAt,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastUpdatedAt  time.Time          `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.Account to its API shape.
// Aggregator credentials never leave this mapping.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		Name:           acc.Name,
		AccountType:    acc.AccountType,
		CurrencyCode:   acc.CurrencyCode,
		OpeningBalance: acc.OpeningBalance,
		Balance:        acc.Balance,
		Color:          acc.Color,
		Description:    acc.Description,
		IsActive:       acc.IsActive,
		IsLinked:       acc.IsLinked(),
		LinkStatus:     acc.Link.Status,
		LastSyncedAt:   acc.Link.LastSyncedAt,
		CreatedAt:      acc.CreatedAt,
		LastUpdatedAt:  acc.LastUpdatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	IncludeInactive bool `form:"includeInactive,default=false"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
