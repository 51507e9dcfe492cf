package domain_test

import (
	"testing"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		txType domain.TransactionType
		want   string
	}{
		{"expense from positive", "30", domain.Expense, "-30"},
		{"expense from negative", "-30", domain.Expense, "-30"},
		{"income from positive", "50", domain.Income, "50"},
		{"income from negative", "-50", domain.Income, "50"},
		{"transfer from negative", "-12.34", domain.Transfer, "12.34"},
		{"zero expense", "0", domain.Expense, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt := decimal.RequireFromString(tt.amount)
			got := domain.NormalizeAmount(amt, tt.txType)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestUrgent(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"999.99", false},
		{"1000", false}, // boundary is strict
		{"-1000", false},
		{"1000.01", true},
		{"-1500", true},
		{"0", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Urgent(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestValidCategory(t *testing.T) {
	assert.True(t, domain.ValidCategory(domain.CategoryGroceries))
	assert.True(t, domain.ValidCategory(domain.CategoryOther))
	assert.False(t, domain.ValidCategory(domain.Category("PETS")))
	assert.False(t, domain.ValidCategory(domain.Category("")))
}
