package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType mirrors domain.AccountType for persistence.
type AccountType string

// Account is the persistence representation of a financial account.
// Bank-link columns are nullable; manual accounts leave them NULL.
type Account struct {
	AccountID      string          `db:"account_id"`
	UserID         string          `db:"user_id"`
	Name           string          `db:"name"`
	AccountType    AccountType     `db:"account_type"`
	CurrencyCode   string          `db:"currency_code"`
	OpeningBalance decimal.Decimal `db:"opening_balance"`
	Balance        decimal.Decimal `db:"balance"`
	Color          string          `db:"color"`
	Description    string          `db:"description"`
	IsActive       bool            `db:"is_active"`

	ProviderItemID    sql.NullString `db:"provider_item_id"`
	ProviderAccountID sql.NullString `db:"provider_account_id"`
	AccessToken       sql.NullString `db:"access_token"`
	LinkStatus        string         `db:"link_status"`
	SyncCursor        sql.NullString `db:"sync_cursor"`
	LastSyncedAt      *time.Time     `db:"last_synced_at"`

	AuditFields
}
