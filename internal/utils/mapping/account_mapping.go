package mapping

import (
	"database/sql"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/models"
)

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToModelAccount converts a domain account for persistence.
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:      d.AccountID,
		UserID:         d.UserID,
		Name:           d.Name,
		AccountType:    models.AccountType(d.AccountType),
		CurrencyCode:   d.CurrencyCode,
		OpeningBalance: d.OpeningBalance,
		Balance:        d.Balance,
		Color:          d.Color,
		Description:    d.Description,
		IsActive:       d.IsActive,

		ProviderItemID:    nullString(d.Link.ProviderItemID),
		ProviderAccountID: nullString(d.Link.ProviderAccountID),
		AccessToken:       nullString(d.Link.AccessToken),
		LinkStatus:        string(d.Link.Status),
		SyncCursor:        nullString(d.Link.SyncCursor),
		LastSyncedAt:      d.Link.LastSyncedAt,

		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a persisted account back to the domain shape.
func ToDomainAccount(m models.Account) domain.Account {
	status := domain.LinkStatus(m.LinkStatus)
	if status == "" {
		status = domain.LinkNone
	}
	return domain.Account{
		AccountID:      m.AccountID,
		UserID:         m.UserID,
		Name:           m.Name,
		AccountType:    domain.AccountType(m.AccountType),
		CurrencyCode:   m.CurrencyCode,
		OpeningBalance: m.OpeningBalance,
		Balance:        m.Balance,
		Color:          m.Color,
		Description:    m.Description,
		IsActive:       m.IsActive,
		Link: domain.BankLink{
			ProviderItemID:    m.ProviderItemID.String,
			ProviderAccountID: m.ProviderAccountID.String,
			AccessToken:       m.AccessToken.String,
			Status:            status,
			SyncCursor:        m.SyncCursor.String,
			LastSyncedAt:      m.LastSyncedAt,
		},
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
