package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates the direction of a transaction.
type TransactionType string

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

// Category is the closed set of spending categories.
type Category string

const (
	CategoryGroceries     Category = "GROCERIES"
	CategoryDining        Category = "DINING"
	CategoryTransport     Category = "TRANSPORT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryRent          Category = "RENT"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHealth        Category = "HEALTH"
	CategoryShopping      Category = "SHOPPING"
	CategoryTravel        Category = "TRAVEL"
	CategorySalary        Category = "SALARY"
	CategoryInvestment    Category = "INVESTMENT"
	CategoryTransfer      Category = "TRANSFER"
	CategoryFees          Category = "FEES"
	CategoryOther         Category = "OTHER"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryGroceries, CategoryDining, CategoryTransport, CategoryUtilities,
	CategoryRent, CategoryEntertainment, CategoryHealth, CategoryShopping,
	CategoryTravel, CategorySalary, CategoryInvestment, CategoryTransfer,
	CategoryFees, CategoryOther,
}

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ClassificationStatus indicates how a transaction was categorized.
type ClassificationStatus string

const (
	ClassifiedByUser ClassificationStatus = "USER"
	ClassifiedByRule ClassificationStatus = "RULE"
	ClassifiedByAI   ClassificationStatus = "AI"
)

// urgentThreshold is the absolute amount above which a transaction is flagged urgent.
var urgentThreshold = decimal.NewFromInt(1000)

// Transaction represents a single ledger movement on one account.
//
// Amount is signed: expenses are negative magnitudes, income and
// transfers-in are positive, regardless of the sign supplied by the client.
// BalanceAfter is the account balance immediately after this transaction in
// (TransactionDate, CreatedAt) order; the ledger service keeps it consistent
// with Account.Balance on every mutation.
type Transaction struct {
	TransactionID string          `json:"transactionID"` // Primary Key (UUID)
	UserID        string          `json:"userID"`        // FK -> users.user_id (owner)
	AccountID     string          `json:"accountID"`     // FK -> accounts.account_id
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Category      Category        `json:"category"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"` // Occurrence date
	Tags          []string        `json:"tags,omitempty"`
	Location      string          `json:"location,omitempty"`
	ExternalID    string          `json:"externalID,omitempty"` // Aggregator transaction id
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	IsUrgent      bool            `json:"isUrgent"`

	ClassificationStatus     ClassificationStatus `json:"classificationStatus,omitempty"`
	ClassificationConfidence float64              `json:"classificationConfidence,omitempty"`

	AuditFields
}

// NormalizeAmount returns the signed amount the ledger stores for the given
// transaction type: expenses always negative, income and transfers always
// positive, whatever sign the caller supplied.
func NormalizeAmount(amount decimal.Decimal, txType TransactionType) decimal.Decimal {
	magnitude := amount.Abs()
	if txType == Expense {
		return magnitude.Neg()
	}
	return magnitude
}

// Urgent reports whether an amount crosses the urgency threshold.
// The boundary is strict: exactly 1000 is not urgent.
func Urgent(amount decimal.Decimal) bool {
	return amount.Abs().GreaterThan(urgentThreshold)
}
