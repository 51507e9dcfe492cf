package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the persistence representation of a ledger movement.
// external_id carries a partial unique index per account so aggregator
// imports stay idempotent.
type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	UserID        string          `db:"user_id"`
	AccountID     string          `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	Type          string          `db:"transaction_type"`
	Category      string          `db:"category"`
	Description   string          `db:"description"`
	Date          time.Time       `db:"transaction_date"`
	Tags          []string        `db:"tags"`
	Location      string          `db:"location"`
	ExternalID    sql.NullString  `db:"external_id"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	IsUrgent      bool            `db:"is_urgent"`

	ClassificationStatus     sql.NullString  `db:"classification_status"`
	ClassificationConfidence sql.NullFloat64 `db:"classification_confidence"`

	AuditFields
}
