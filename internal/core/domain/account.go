package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a personal-finance account.
type AccountType string

const (
	Checking   AccountType = "CHECKING"
	Savings    AccountType = "SAVINGS"
	Credit     AccountType = "CREDIT"
	Investment AccountType = "INVESTMENT"
	Cash       AccountType = "CASH"
)

// LinkStatus is the state of an account's connection to the bank aggregator.
type LinkStatus string

const (
	LinkNone    LinkStatus = "NONE"    // manual account, never linked
	LinkActive  LinkStatus = "ACTIVE"  // linked and syncing
	LinkExpired LinkStatus = "EXPIRED" // access token expired, relink required
	LinkError   LinkStatus = "ERROR"   // last sync failed
)

// BankLink holds the aggregator metadata for an externally linked account.
// All fields are empty for manually managed accounts.
type BankLink struct {
	ProviderItemID    string     `json:"providerItemID,omitempty"`
	ProviderAccountID string     `json:"providerAccountID,omitempty"`
	AccessToken       string     `json:"-"` // never serialized
	Status            LinkStatus `json:"status"`
	SyncCursor        string     `json:"-"`
	LastSyncedAt      *time.Time `json:"lastSyncedAt,omitempty"`
}

// Account represents a financial account owned by a single user.
//
// Invariant: Balance always equals OpeningBalance plus the sum of the signed
// amounts of every non-deleted transaction on the account. The invariant is
// maintained by the ledger service; direct field edits (name, color,
// description) never touch Balance.
type Account struct {
	AccountID      string          `json:"accountID"` // Primary Key (UUID)
	UserID         string          `json:"userID"`    // FK -> users.user_id (owner)
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	CurrencyCode   string          `json:"currencyCode"` // FK -> currencies.code
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Balance        decimal.Decimal `json:"balance"`
	Color          string          `json:"color"` // Nullable display hint
	Description    string          `json:"description"`
	IsActive       bool            `json:"isActive"` // Soft delete flag
	Link           BankLink        `json:"link"`
	AuditFields
}

// IsLinked reports whether the account is connected to the aggregator.
func (a *Account) IsLinked() bool {
	return a.Link.ProviderAccountID != ""
}
