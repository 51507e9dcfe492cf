package services_test

import (
	"context"
	"testing"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/core/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo   *MockAccountRepository
	mockTxnRepo       *MockTransactionRepository
	mockCurrencyRepo  *MockCurrencyRepository
	mockReportingRepo *MockReportingRepository
	service           *services.AccountService

	userID string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.service = services.NewAccountService(
		suite.mockAccountRepo,
		suite.mockTxnRepo,
		suite.mockCurrencyRepo,
		suite.mockReportingRepo,
	)
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:           "Emergency Fund",
		AccountType:    domain.Savings,
		CurrencyCode:   "USD",
		OpeningBalance: decimal.NewFromInt(500),
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(&domain.Currency{CurrencyCode: "USD"}, nil).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.UserID == suite.userID &&
			a.Balance.Equal(a.OpeningBalance) &&
			a.IsActive &&
			a.Link.Status == domain.LinkNone
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(account.AccountID)
	suite.True(account.Balance.Equal(decimal.NewFromInt(500)))
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnsupportedCurrencyRejected() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:         "Zloty Stash",
		AccountType:  domain.Cash,
		CurrencyCode: "PLN",
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "PLN").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_ForeignReadsAsNotFound() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID: uuid.NewString(),
		UserID:    uuid.NewString(),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()

	_, err := suite.service.GetAccountByID(ctx, account.AccountID, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_OnlyProvidedFieldsChange() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		UserID:      suite.userID,
		Name:        "Old Name",
		Color:       "#112233",
		Description: "keep me",
		Balance:     decimal.NewFromInt(80),
	}
	newName := "New Name"
	req := dto.UpdateAccountRequest{Name: &newName}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Name == "New Name" && a.Color == "#112233" && a.Description == "keep me"
	})).Return(nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, account.AccountID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("New Name", updated.Name)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_WithHistorySoftDeletes() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), UserID: suite.userID, IsActive: true}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockTxnRepo.On("CountTransactionsByAccount", ctx, account.AccountID).Return(int64(7), nil).Once()
	suite.mockAccountRepo.On("DeactivateAccount", ctx, account.AccountID, suite.userID, mock.Anything).Return(nil).Once()

	err := suite.service.DeleteAccount(ctx, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeleteAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_EmptyAccountHardDeletes() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), UserID: suite.userID, IsActive: true}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockTxnRepo.On("CountTransactionsByAccount", ctx, account.AccountID).Return(int64(0), nil).Once()
	suite.mockAccountRepo.On("DeleteAccount", ctx, account.AccountID).Return(nil).Once()

	err := suite.service.DeleteAccount(ctx, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetOverview_Delegates() {
	ctx := context.Background()
	overview := &domain.AccountsOverview{
		NetWorth:    decimal.NewFromInt(1234),
		ActiveCount: 3,
	}

	suite.mockReportingRepo.On("AccountsOverview", ctx, suite.userID).Return(overview, nil).Once()

	got, err := suite.service.GetOverview(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(overview, got)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
