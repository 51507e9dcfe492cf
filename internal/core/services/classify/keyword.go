// Package classify provides the transaction classifiers. The keyword
// classifier is the default; the Gemini classifier is available behind the
// same interface when an API key is configured.
package classify

import (
	"context"
	"strings"

	"github.com/finbook/finbook_backend/internal/core/domain"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// keywordRules maps lowercase description substrings to categories. First
// match wins, so more specific keywords come first within a category.
var keywordRules = []struct {
	keyword  string
	category domain.Category
}{
	{"salary", domain.CategorySalary},
	{"payroll", domain.CategorySalary},
	{"paycheck", domain.CategorySalary},
	{"grocery", domain.CategoryGroceries},
	{"supermarket", domain.CategoryGroceries},
	{"aldi", domain.CategoryGroceries},
	{"tesco", domain.CategoryGroceries},
	{"whole foods", domain.CategoryGroceries},
	{"restaurant", domain.CategoryDining},
	{"cafe", domain.CategoryDining},
	{"coffee", domain.CategoryDining},
	{"pizza", domain.CategoryDining},
	{"doordash", domain.CategoryDining},
	{"uber eats", domain.CategoryDining},
	{"uber", domain.CategoryTransport},
	{"lyft", domain.CategoryTransport},
	{"fuel", domain.CategoryTransport},
	{"gas station", domain.CategoryTransport},
	{"parking", domain.CategoryTransport},
	{"transit", domain.CategoryTransport},
	{"electric", domain.CategoryUtilities},
	{"water bill", domain.CategoryUtilities},
	{"internet", domain.CategoryUtilities},
	{"phone bill", domain.CategoryUtilities},
	{"utility", domain.CategoryUtilities},
	{"rent", domain.CategoryRent},
	{"landlord", domain.CategoryRent},
	{"mortgage", domain.CategoryRent},
	{"netflix", domain.CategoryEntertainment},
	{"spotify", domain.CategoryEntertainment},
	{"cinema", domain.CategoryEntertainment},
	{"steam", domain.CategoryEntertainment},
	{"pharmacy", domain.CategoryHealth},
	{"doctor", domain.CategoryHealth},
	{"dental", domain.CategoryHealth},
	{"hospital", domain.CategoryHealth},
	{"gym", domain.CategoryHealth},
	{"amazon", domain.CategoryShopping},
	{"ebay", domain.CategoryShopping},
	{"clothing", domain.CategoryShopping},
	{"hotel", domain.CategoryTravel},
	{"airline", domain.CategoryTravel},
	{"flight", domain.CategoryTravel},
	{"airbnb", domain.CategoryTravel},
	{"dividend", domain.CategoryInvestment},
	{"brokerage", domain.CategoryInvestment},
	{"vanguard", domain.CategoryInvestment},
	{"transfer", domain.CategoryTransfer},
	{"atm withdrawal", domain.CategoryTransfer},
	{"fee", domain.CategoryFees},
	{"interest charge", domain.CategoryFees},
}

// KeywordClassifier categorizes transactions by description keywords. It
// never fails and needs no external services.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the rule-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var _ portssvc.Classifier = (*KeywordClassifier)(nil)

// Classify matches the description against the keyword rules. Anything
// unmatched falls back to OTHER with zero confidence.
func (c *KeywordClassifier) Classify(ctx context.Context, description string, amount decimal.Decimal) (*portssvc.Classification, error) {
	lower := strings.ToLower(description)
	for _, rule := range keywordRules {
		if strings.Contains(lower, rule.keyword) {
			return &portssvc.Classification{
				Category:   rule.category,
				Confidence: 0.7,
				Source:     domain.ClassifiedByRule,
			}, nil
		}
	}
	return &portssvc.Classification{
		Category:   domain.CategoryOther,
		Confidence: 0,
		Source:     domain.ClassifiedByRule,
	}, nil
}
