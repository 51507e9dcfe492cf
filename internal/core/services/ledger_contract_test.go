package services_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	"github.com/finbook/finbook_backend/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// fakeLedgerStore is an in-memory stand-in for the Postgres repositories that
// honors the LedgerWriter contract: every write adjusts the live balance and
// recomputes the balance-after snapshot of every transaction on the account
// in (date, created_at, transaction_id) order.
type fakeLedgerStore struct {
	account domain.Account
	txns    map[string]domain.Transaction
	seq     int
}

func newFakeLedgerStore(account domain.Account) *fakeLedgerStore {
	return &fakeLedgerStore{
		account: account,
		txns:    make(map[string]domain.Transaction),
	}
}

// recompute replays the whole account: balance is the opening balance plus
// every signed amount, and each snapshot is the running sum up to its row.
func (f *fakeLedgerStore) recompute() {
	ordered := make([]domain.Transaction, 0, len(f.txns))
	for _, t := range f.txns {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].TransactionID < ordered[j].TransactionID
	})

	running := f.account.OpeningBalance
	for _, t := range ordered {
		running = running.Add(t.Amount)
		t.BalanceAfter = running
		f.txns[t.TransactionID] = t
	}
	f.account.Balance = running
}

// --- LedgerWriter ---

func (f *fakeLedgerStore) CreateTransaction(_ context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	if txn.TransactionID == "" {
		txn.TransactionID = uuid.NewString()
	}
	f.seq++
	txn.CreatedAt = time.Unix(int64(f.seq), 0)
	f.txns[txn.TransactionID] = txn
	f.recompute()
	saved := f.txns[txn.TransactionID]
	return &saved, nil
}

func (f *fakeLedgerStore) UpdateTransaction(_ context.Context, txn domain.Transaction, _ decimal.Decimal) (*domain.Transaction, error) {
	existing, ok := f.txns[txn.TransactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	txn.CreatedAt = existing.CreatedAt
	f.txns[txn.TransactionID] = txn
	f.recompute()
	saved := f.txns[txn.TransactionID]
	return &saved, nil
}

func (f *fakeLedgerStore) DeleteTransaction(_ context.Context, txn domain.Transaction) error {
	if _, ok := f.txns[txn.TransactionID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.txns, txn.TransactionID)
	f.recompute()
	return nil
}

func (f *fakeLedgerStore) ShiftOpeningBalance(_ context.Context, accountID string, delta decimal.Decimal, _ string, _ time.Time) error {
	if accountID != f.account.AccountID {
		return apperrors.ErrNotFound
	}
	f.account.OpeningBalance = f.account.OpeningBalance.Add(delta)
	f.recompute()
	return nil
}

// --- TransactionReader ---

func (f *fakeLedgerStore) FindTransactionByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	t, ok := f.txns[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (f *fakeLedgerStore) FindTransactionByExternalID(_ context.Context, _ string, externalID string) (*domain.Transaction, error) {
	for _, t := range f.txns {
		if t.ExternalID == externalID {
			return &t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeLedgerStore) ListTransactions(_ context.Context, _ portsrepo.TransactionFilter) ([]domain.Transaction, int64, error) {
	out := make([]domain.Transaction, 0, len(f.txns))
	for _, t := range f.txns {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerStore) CountTransactionsByAccount(_ context.Context, _ string) (int64, error) {
	return int64(len(f.txns)), nil
}

// --- AccountRepositoryFacade ---

func (f *fakeLedgerStore) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	if accountID != f.account.AccountID {
		return nil, apperrors.ErrNotFound
	}
	account := f.account
	return &account, nil
}

func (f *fakeLedgerStore) FindAccountByProviderID(_ context.Context, _ string, _ string) (*domain.Account, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeLedgerStore) FindAccountByProviderItemID(_ context.Context, _ string) (*domain.Account, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeLedgerStore) ListAccountsByUser(_ context.Context, _ string, _ bool) ([]domain.Account, error) {
	return []domain.Account{f.account}, nil
}

func (f *fakeLedgerStore) ListLinkedAccounts(_ context.Context, _ string) ([]domain.Account, error) {
	return nil, nil
}

func (f *fakeLedgerStore) ListUsersWithLinkedAccounts(_ context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeLedgerStore) SaveAccount(_ context.Context, account domain.Account) error {
	f.account = account
	return nil
}

func (f *fakeLedgerStore) UpdateAccount(_ context.Context, account domain.Account) error {
	f.account = account
	return nil
}

func (f *fakeLedgerStore) UpdateBankLink(_ context.Context, _ string, link domain.BankLink, _ string, _ time.Time) error {
	f.account.Link = link
	return nil
}

func (f *fakeLedgerStore) DeactivateAccount(_ context.Context, _ string, _ string, _ time.Time) error {
	f.account.IsActive = false
	return nil
}

func (f *fakeLedgerStore) DeleteAccount(_ context.Context, _ string) error {
	return nil
}

var _ portsrepo.TransactionRepositoryFacade = (*fakeLedgerStore)(nil)
var _ portsrepo.AccountRepositoryFacade = (*fakeLedgerStore)(nil)

// LedgerContractTestSuite drives LedgerService against the in-memory store
// and checks the accounting identity after every mutation: the live balance
// always equals the opening balance plus the sum of stored signed amounts,
// and each snapshot equals the running sum at its row.
type LedgerContractTestSuite struct {
	suite.Suite
	store   *fakeLedgerStore
	service *services.LedgerService

	userID string
}

func (suite *LedgerContractTestSuite) SetupTest() {
	suite.userID = uuid.NewString()
	suite.store = newFakeLedgerStore(domain.Account{
		AccountID:      uuid.NewString(),
		UserID:         suite.userID,
		Name:           "Everyday Checking",
		AccountType:    domain.Checking,
		CurrencyCode:   "USD",
		OpeningBalance: decimal.NewFromInt(100),
		Balance:        decimal.NewFromInt(100),
		IsActive:       true,
	})
	suite.service = services.NewLedgerService(suite.store, suite.store)
}

// assertAccountingIdentity checks balance = opening + sum of signed amounts.
func (suite *LedgerContractTestSuite) assertAccountingIdentity() {
	suite.T().Helper()
	sum := suite.store.account.OpeningBalance
	for _, t := range suite.store.txns {
		sum = sum.Add(t.Amount)
	}
	suite.True(suite.store.account.Balance.Equal(sum),
		"balance %s != opening + sum %s", suite.store.account.Balance, sum)
}

func (suite *LedgerContractTestSuite) balance() decimal.Decimal {
	return suite.store.account.Balance
}

func (suite *LedgerContractTestSuite) snapshot(transactionID string) decimal.Decimal {
	return suite.store.txns[transactionID].BalanceAfter
}

func (suite *LedgerContractTestSuite) TestLifecycleKeepsBalanceConsistent() {
	ctx := context.Background()
	accountID := suite.store.account.AccountID
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Expense of 30 brings the 100 opening balance down to 70.
	expense, err := suite.service.ApplyNew(ctx, suite.userID, domain.Transaction{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(30),
		Type:      domain.Expense,
		Category:  domain.CategoryGroceries,
		Date:      day,
	})
	suite.Require().NoError(err)
	suite.True(suite.balance().Equal(decimal.NewFromInt(70)))
	suite.True(expense.BalanceAfter.Equal(decimal.NewFromInt(70)))
	suite.assertAccountingIdentity()

	// Income of 50 lifts it to 120.
	income, err := suite.service.ApplyNew(ctx, suite.userID, domain.Transaction{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(50),
		Type:      domain.Income,
		Category:  domain.CategorySalary,
		Date:      day.Add(24 * time.Hour),
	})
	suite.Require().NoError(err)
	suite.True(suite.balance().Equal(decimal.NewFromInt(120)))
	suite.True(income.BalanceAfter.Equal(decimal.NewFromInt(120)))
	suite.assertAccountingIdentity()

	// Raising the expense to 45 shifts the balance by -15 and refreshes the
	// downstream income snapshot too.
	amended := *expense
	amended.Amount = decimal.NewFromInt(45)
	_, err = suite.service.Amend(ctx, suite.userID, *expense, amended)
	suite.Require().NoError(err)
	suite.True(suite.balance().Equal(decimal.NewFromInt(105)))
	suite.True(suite.snapshot(expense.TransactionID).Equal(decimal.NewFromInt(55)))
	suite.True(suite.snapshot(income.TransactionID).Equal(decimal.NewFromInt(105)))
	suite.assertAccountingIdentity()

	// Deleting the expense leaves only the income: 100 + 50, even though the
	// expense was not the latest row. The income snapshot moves with it.
	removed := suite.store.txns[expense.TransactionID]
	suite.Require().NoError(suite.service.Remove(ctx, suite.userID, removed))
	suite.True(suite.balance().Equal(decimal.NewFromInt(150)))
	suite.True(suite.snapshot(income.TransactionID).Equal(decimal.NewFromInt(150)))
	suite.assertAccountingIdentity()

	// Reconciling against an external figure of 250 shifts the opening
	// balance by the 100 drift without touching the transaction history.
	shifted, err := suite.service.ReconcileBalance(ctx, suite.userID, accountID, decimal.NewFromInt(250))
	suite.Require().NoError(err)
	suite.True(shifted)
	suite.True(suite.store.account.OpeningBalance.Equal(decimal.NewFromInt(200)))
	suite.True(suite.balance().Equal(decimal.NewFromInt(250)))
	suite.True(suite.snapshot(income.TransactionID).Equal(decimal.NewFromInt(250)))
	suite.Require().Len(suite.store.txns, 1)
	suite.assertAccountingIdentity()
}

func (suite *LedgerContractTestSuite) TestBackdatedEntryRecomputesDownstreamSnapshots() {
	ctx := context.Background()
	accountID := suite.store.account.AccountID
	today := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	income, err := suite.service.ApplyNew(ctx, suite.userID, domain.Transaction{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(50),
		Type:      domain.Income,
		Category:  domain.CategorySalary,
		Date:      today,
	})
	suite.Require().NoError(err)
	suite.True(income.BalanceAfter.Equal(decimal.NewFromInt(150)))

	// A backdated expense slots in before the income, so the income snapshot
	// is stale until recomputed.
	backdated, err := suite.service.ApplyNew(ctx, suite.userID, domain.Transaction{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(20),
		Type:      domain.Expense,
		Category:  domain.CategoryDining,
		Date:      today.Add(-48 * time.Hour),
	})
	suite.Require().NoError(err)

	suite.True(suite.balance().Equal(decimal.NewFromInt(130)))
	suite.True(suite.snapshot(backdated.TransactionID).Equal(decimal.NewFromInt(80)))
	suite.True(suite.snapshot(income.TransactionID).Equal(decimal.NewFromInt(130)))
	suite.assertAccountingIdentity()
}

func TestLedgerContract(t *testing.T) {
	suite.Run(t, new(LedgerContractTestSuite))
}
