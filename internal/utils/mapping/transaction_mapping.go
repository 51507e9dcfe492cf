package mapping

import (
	"database/sql"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/models"
)

// ToModelTransaction converts a domain transaction for persistence.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	var confidence sql.NullFloat64
	if d.ClassificationStatus != "" {
		confidence = sql.NullFloat64{Float64: d.ClassificationConfidence, Valid: true}
	}
	return models.Transaction{
		TransactionID: d.TransactionID,
		UserID:        d.UserID,
		AccountID:     d.AccountID,
		Amount:        d.Amount,
		Type:          string(d.Type),
		Category:      string(d.Category),
		Description:   d.Description,
		Date:          d.Date,
		Tags:          d.Tags,
		Location:      d.Location,
		ExternalID:    nullString(d.ExternalID),
		BalanceAfter:  d.BalanceAfter,
		IsUrgent:      d.IsUrgent,

		ClassificationStatus:     nullString(string(d.ClassificationStatus)),
		ClassificationConfidence: confidence,

		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a persisted transaction back to the domain shape.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		AccountID:     m.AccountID,
		Amount:        m.Amount,
		Type:          domain.TransactionType(m.Type),
		Category:      domain.Category(m.Category),
		Description:   m.Description,
		Date:          m.Date,
		Tags:          m.Tags,
		Location:      m.Location,
		ExternalID:    m.ExternalID.String,
		BalanceAfter:  m.BalanceAfter,
		IsUrgent:      m.IsUrgent,

		ClassificationStatus:     domain.ClassificationStatus(m.ClassificationStatus.String),
		ClassificationConfidence: m.ClassificationConfidence.Float64,

		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactions converts a slice of persisted transactions.
func ToDomainTransactions(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
