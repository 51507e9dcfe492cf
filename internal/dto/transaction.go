package dto

import (
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines the payload to record a manual transaction.
// Amount is always a positive magnitude; the server signs it by type.
type CreateTransactionRequest struct {
	AccountID   string                 `json:"accountId" binding:"required,uuid"`
	Amount      decimal.Decimal        `json:"amount" binding:"required"`
	Type        domain.TransactionType `json:"type" binding:"required,oneof=INCOME EXPENSE TRANSFER"`
	Category    domain.Category        `json:"category"`
	Description string                 `json:"description" binding:"required"`
	Date        *time.Time             `json:"date"`
	Tags        []string               `json:"tags"`
	Location    string                 `json:"location"`
}

// UpdateTransactionRequest defines the editable fields of a transaction.
// Pointers distinguish omitted fields from zero values.
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal        `json:"amount"`
	Type        *domain.TransactionType `json:"type" binding:"omitempty,oneof=INCOME EXPENSE TRANSFER"`
	Category    *domain.Category        `json:"category"`
	Description *string                 `json:"description"`
	Date        *time.Time              `json:"date"`
	Tags        []string                `json:"tags"`
	Location    *string                 `json:"location"`
}

// ListTransactionsParams defines the query surface for listing transactions.
type ListTransactionsParams struct {
	pagination.Params
	AccountID string `form:"accountId" binding:"omitempty,uuid"`
	Type      string `form:"type" binding:"omitempty,oneof=INCOME EXPENSE TRANSFER"`
	Category  string `form:"category"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Search    string `form:"search"`
}

// TransactionResponse is the API shape of a ledger entry.
type TransactionResponse struct {
	TransactionID        string                      `json:"transactionID"`
	AccountID            string                      `json:"accountID"`
	Amount               decimal.Decimal             `json:"amount"`
	Type                 domain.TransactionType      `json:"type"`
	Category             domain.Category             `json:"category"`
	Description          string                      `json:"description"`
	TransactionDate      time.Time                   `json:"transactionDate"`
	Tags                 []string                    `json:"tags,omitempty"`
	Location             string                      `json:"location,omitempty"`
	BalanceAfter         decimal.Decimal             `json:"balanceAfter"`
	IsUrgent             bool                        `json:"isUrgent"`
	ClassificationStatus domain.ClassificationStatus `json:"classificationStatus"`
	CreatedAt            time.Time                   `json:"createdAt"`
	LastUpdatedAt        time.Time                   `json:"lastUpdatedAt"`
}

// ToTransactionResponse converts a domain.Transaction to its API shape.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        txn.TransactionID,
		AccountID:            txn.AccountID,
		Amount:               txn.Amount,
		Type:                 txn.Type,
		Category:             txn.Category,
		Description:          txn.Description,
		TransactionDate:      txn.Date,
		Tags:                 txn.Tags,
		Location:             txn.Location,
		BalanceAfter:         txn.BalanceAfter,
		IsUrgent:             txn.IsUrgent,
		ClassificationStatus: txn.ClassificationStatus,
		CreatedAt:            txn.CreatedAt,
		LastUpdatedAt:        txn.LastUpdatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}

// ListTransactionsResponse wraps a page of transactions with its metadata.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   pagination.Meta       `json:"pagination"`
}
