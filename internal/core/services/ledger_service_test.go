package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockTxnRepo     *MockTransactionRepository
	mockAccountRepo *MockAccountRepository
	service         *services.LedgerService

	userID  string
	account domain.Account
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewLedgerService(suite.mockTxnRepo, suite.mockAccountRepo)

	suite.userID = uuid.NewString()
	suite.account = domain.Account{
		AccountID:      uuid.NewString(),
		UserID:         suite.userID,
		Name:           "Everyday Checking",
		AccountType:    domain.Checking,
		CurrencyCode:   "USD",
		OpeningBalance: decimal.NewFromInt(100),
		Balance:        decimal.NewFromInt(100),
		IsActive:       true,
	}
}

func (suite *LedgerServiceTestSuite) TestApplyNew_NormalizesExpenseSign() {
	ctx := context.Background()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     suite.account.AccountID,
		Amount:        decimal.NewFromInt(30), // positive magnitude from the client
		Type:          domain.Expense,
		Category:      domain.CategoryGroceries,
		Date:          time.Now(),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Amount.Equal(decimal.NewFromInt(-30)) && t.UserID == suite.userID && !t.IsUrgent
	})).Return(&domain.Transaction{
		TransactionID: txn.TransactionID,
		Amount:        decimal.NewFromInt(-30),
		BalanceAfter:  decimal.NewFromInt(70),
	}, nil).Once()

	saved, err := suite.service.ApplyNew(ctx, suite.userID, txn)

	suite.Require().NoError(err)
	suite.True(saved.Amount.Equal(decimal.NewFromInt(-30)))
	suite.True(saved.BalanceAfter.Equal(decimal.NewFromInt(70)))
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestApplyNew_FlagsUrgentAboveThreshold() {
	ctx := context.Background()
	txn := domain.Transaction{
		AccountID: suite.account.AccountID,
		Amount:    decimal.NewFromInt(1001),
		Type:      domain.Expense,
		Category:  domain.CategoryRent,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.IsUrgent
	})).Return(&domain.Transaction{IsUrgent: true}, nil).Once()

	saved, err := suite.service.ApplyNew(ctx, suite.userID, txn)

	suite.Require().NoError(err)
	suite.True(saved.IsUrgent)
}

func (suite *LedgerServiceTestSuite) TestApplyNew_ExactThresholdNotUrgent() {
	ctx := context.Background()
	txn := domain.Transaction{
		AccountID: suite.account.AccountID,
		Amount:    decimal.NewFromInt(1000),
		Type:      domain.Expense,
		Category:  domain.CategoryRent,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return !t.IsUrgent
	})).Return(&domain.Transaction{}, nil).Once()

	_, err := suite.service.ApplyNew(ctx, suite.userID, txn)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestApplyNew_ForeignAccountReadsAsNotFound() {
	ctx := context.Background()
	foreign := suite.account
	foreign.UserID = uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, foreign.AccountID).Return(&foreign, nil).Once()

	_, err := suite.service.ApplyNew(ctx, suite.userID, domain.Transaction{AccountID: foreign.AccountID, Type: domain.Expense})

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestApplyNew_InactiveAccountReadsAsNotFound() {
	ctx := context.Background()
	inactive := suite.account
	inactive.IsActive = false

	suite.mockAccountRepo.On("FindAccountByID", ctx, inactive.AccountID).Return(&inactive, nil).Once()

	_, err := suite.service.ApplyNew(ctx, suite.userID, domain.Transaction{AccountID: inactive.AccountID, Type: domain.Income})

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestAmend_ComputesAmountDelta() {
	ctx := context.Background()
	existing := domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        suite.userID,
		AccountID:     suite.account.AccountID,
		Amount:        decimal.NewFromInt(-30),
		Type:          domain.Expense,
		Category:      domain.CategoryGroceries,
	}
	updated := existing
	updated.Amount = decimal.NewFromInt(50)
	updated.Type = domain.Income
	updated.Category = domain.CategorySalary

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	// -30 -> +50 shifts the balance by +80.
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.TransactionID == existing.TransactionID && t.Amount.Equal(decimal.NewFromInt(50))
	}), decimal.NewFromInt(80)).Return(&updated, nil).Once()

	saved, err := suite.service.Amend(ctx, suite.userID, existing, updated)

	suite.Require().NoError(err)
	suite.Equal(existing.TransactionID, saved.TransactionID)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestAmend_PreservesIdentityFields() {
	ctx := context.Background()
	existing := domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        suite.userID,
		AccountID:     suite.account.AccountID,
		Amount:        decimal.NewFromInt(-10),
		Type:          domain.Expense,
	}
	updated := domain.Transaction{
		TransactionID: "attacker-chosen",
		UserID:        "someone-else",
		AccountID:     "another-account",
		Amount:        decimal.NewFromInt(10),
		Type:          domain.Expense,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.TransactionID == existing.TransactionID &&
			t.UserID == existing.UserID &&
			t.AccountID == existing.AccountID
	}), mock.Anything).Return(&existing, nil).Once()

	_, err := suite.service.Amend(ctx, suite.userID, existing, updated)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestRemove_Success() {
	ctx := context.Background()
	existing := domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        suite.userID,
		AccountID:     suite.account.AccountID,
		Amount:        decimal.NewFromInt(-30),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockTxnRepo.On("DeleteTransaction", ctx, existing).Return(nil).Once()

	err := suite.service.Remove(ctx, suite.userID, existing)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReconcileBalance_ShiftsOpeningBalance() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	// Local balance 100, provider reports 250: the opening balance shifts by 150.
	suite.mockTxnRepo.On("ShiftOpeningBalance", ctx, suite.account.AccountID, decimal.NewFromInt(150), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	shifted, err := suite.service.ReconcileBalance(ctx, suite.userID, suite.account.AccountID, decimal.NewFromInt(250))

	suite.Require().NoError(err)
	suite.True(shifted)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReconcileBalance_NoDriftWritesNothing() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()

	shifted, err := suite.service.ReconcileBalance(ctx, suite.userID, suite.account.AccountID, decimal.NewFromInt(100))

	suite.Require().NoError(err)
	suite.False(shifted)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ShiftOpeningBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
