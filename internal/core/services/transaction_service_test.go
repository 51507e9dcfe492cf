package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/core/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/finbook/finbook_backend/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TransactionServiceTestSuite struct {
	suite.Suite
	mockTxnRepo    *MockTransactionRepository
	mockLedger     *MockLedgerService
	mockClassifier *MockClassifier
	service        *services.TransactionService

	userID    string
	accountID string
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockLedger = new(MockLedgerService)
	suite.mockClassifier = new(MockClassifier)
	suite.service = services.NewTransactionService(suite.mockTxnRepo, suite.mockLedger, suite.mockClassifier)

	suite.userID = uuid.NewString()
	suite.accountID = uuid.NewString()
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_ExplicitCategoryIsUserClassified() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:   suite.accountID,
		Amount:      decimal.NewFromInt(25),
		Type:        domain.Expense,
		Category:    domain.CategoryDining,
		Description: "Lunch",
	}

	suite.mockLedger.On("ApplyNew", ctx, suite.userID, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Category == domain.CategoryDining &&
			t.ClassificationStatus == domain.ClassifiedByUser &&
			t.ClassificationConfidence == 1.0
	})).Return(&domain.Transaction{Category: domain.CategoryDining}, nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockClassifier.AssertNotCalled(suite.T(), "Classify", mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_OmittedCategoryIsClassified() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:   suite.accountID,
		Amount:      decimal.NewFromInt(40),
		Type:        domain.Expense,
		Description: "UBER EATS ORDER",
	}

	suite.mockClassifier.On("Classify", ctx, "UBER EATS ORDER", mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(-40)) // classifier sees the normalized signed amount
	})).Return(&portssvc.Classification{
		Category:   domain.CategoryDining,
		Confidence: 0.7,
		Source:     domain.ClassifiedByRule,
	}, nil).Once()
	suite.mockLedger.On("ApplyNew", ctx, suite.userID, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Category == domain.CategoryDining && t.ClassificationStatus == domain.ClassifiedByRule
	})).Return(&domain.Transaction{Category: domain.CategoryDining}, nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockClassifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_ClassifierFailureFallsBackToOther() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:   suite.accountID,
		Amount:      decimal.NewFromInt(12),
		Type:        domain.Expense,
		Description: "???",
	}

	suite.mockClassifier.On("Classify", ctx, "???", mock.Anything).Return(nil, errors.New("model unavailable")).Once()
	suite.mockLedger.On("ApplyNew", ctx, suite.userID, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Category == domain.CategoryOther
	})).Return(&domain.Transaction{Category: domain.CategoryOther}, nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_UnknownCategoryRejected() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID: suite.accountID,
		Amount:    decimal.NewFromInt(5),
		Type:      domain.Expense,
		Category:  domain.Category("GAMBLING"),
	}

	_, err := suite.service.CreateTransaction(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedger.AssertNotCalled(suite.T(), "ApplyNew", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestGetTransactionByID_ForeignReadsAsNotFound() {
	ctx := context.Background()
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        uuid.NewString(), // someone else's
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.GetTransactionByID(ctx, txn.TransactionID, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *TransactionServiceTestSuite) TestUpdateTransaction_CategoryChangeBecomesUserClassified() {
	ctx := context.Background()
	existing := &domain.Transaction{
		TransactionID:            uuid.NewString(),
		UserID:                   suite.userID,
		AccountID:                suite.accountID,
		Amount:                   decimal.NewFromInt(-20),
		Type:                     domain.Expense,
		Category:                 domain.CategoryOther,
		ClassificationStatus:     domain.ClassifiedByAI,
		ClassificationConfidence: 0.55,
	}
	newCategory := domain.CategoryGroceries
	req := dto.UpdateTransactionRequest{Category: &newCategory}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, existing.TransactionID).Return(existing, nil).Once()
	suite.mockLedger.On("Amend", ctx, suite.userID, mock.Anything, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Category == domain.CategoryGroceries &&
			t.ClassificationStatus == domain.ClassifiedByUser &&
			t.ClassificationConfidence == 1.0
	})).Return(existing, nil).Once()

	_, err := suite.service.UpdateTransaction(ctx, existing.TransactionID, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestDeleteTransaction_DelegatesToLedger() {
	ctx := context.Background()
	existing := &domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        suite.userID,
		AccountID:     suite.accountID,
		Amount:        decimal.NewFromInt(-15),
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, existing.TransactionID).Return(existing, nil).Once()
	suite.mockLedger.On("Remove", ctx, suite.userID, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.TransactionID == existing.TransactionID
	})).Return(nil).Once()

	err := suite.service.DeleteTransaction(ctx, existing.TransactionID, suite.userID)

	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestListTransactions_InvalidDateRejected() {
	ctx := context.Background()
	params := dto.ListTransactionsParams{StartDate: "not-a-date"}

	_, err := suite.service.ListTransactions(ctx, suite.userID, params)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestListTransactions_PagesAndTotals() {
	ctx := context.Background()
	params := dto.ListTransactionsParams{
		Params: pagination.Params{Page: 2, Limit: 10},
	}
	txns := []domain.Transaction{
		{TransactionID: uuid.NewString(), UserID: suite.userID, Amount: decimal.NewFromInt(-5)},
	}

	suite.mockTxnRepo.On("ListTransactions", ctx, mock.MatchedBy(func(f portsrepo.TransactionFilter) bool {
		return f.UserID == suite.userID && f.Limit == 10 && f.Offset == 10
	})).Return(txns, int64(11), nil).Once()

	resp, err := suite.service.ListTransactions(ctx, suite.userID, params)

	suite.Require().NoError(err)
	suite.Len(resp.Transactions, 1)
	suite.Equal(int64(11), resp.Pagination.Total)
	suite.Equal(2, resp.Pagination.Page)
	suite.True(resp.Pagination.HasPrev)
}

func TestTransactionService(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
