package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
	"github.com/finbook/finbook_backend/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AnalyticsServiceTestSuite struct {
	suite.Suite
	mockReportingRepo *MockReportingRepository
	service           *services.AnalyticsService

	userID string
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.service = services.NewAnalyticsService(suite.mockReportingRepo)
	suite.userID = uuid.NewString()
}

// monthUTC returns the first instant of the month offset months before the
// current one.
func monthUTC(offset int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -offset, 0)
}

func (suite *AnalyticsServiceTestSuite) TestIncomeExpense_FillsMissingMonthsWithZeros() {
	ctx := context.Background()
	// Activity only two months ago; last month and this month are silent.
	flows := []domain.MonthlyFlow{
		{Month: monthUTC(2), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(1200)},
	}

	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, 2).Return(flows, nil).Once()

	series, err := suite.service.IncomeExpense(ctx, suite.userID, 2)

	suite.Require().NoError(err)
	suite.Require().Len(series, 3) // months ago .. current, inclusive
	suite.True(series[0].Income.Equal(decimal.NewFromInt(3000)))
	suite.True(series[1].Income.IsZero())
	suite.True(series[1].Expenses.IsZero())
	suite.True(series[2].Income.IsZero())
	suite.Equal(monthUTC(0), series[2].Month)
}

func (suite *AnalyticsServiceTestSuite) TestIncomeExpense_OldestFirst() {
	ctx := context.Background()
	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, 3).Return([]domain.MonthlyFlow{}, nil).Once()

	series, err := suite.service.IncomeExpense(ctx, suite.userID, 3)

	suite.Require().NoError(err)
	suite.Require().Len(series, 4)
	for i := 1; i < len(series); i++ {
		suite.True(series[i-1].Month.Before(series[i].Month))
	}
}

func (suite *AnalyticsServiceTestSuite) TestPrediction_AveragesCompleteMonthsOnly() {
	ctx := context.Background()
	flows := []domain.MonthlyFlow{
		{Month: monthUTC(2), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(1000)},
		{Month: monthUTC(1), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(2000)},
		// In-progress month must not drag the average down.
		{Month: monthUTC(0), Income: decimal.NewFromInt(100), Expenses: decimal.NewFromInt(50)},
	}

	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, mock.Anything).Return(flows, nil).Once()

	prediction, err := suite.service.Prediction(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, prediction.SampleMonths)
	suite.True(prediction.PredictedIncome.Equal(decimal.NewFromInt(3000)))
	suite.True(prediction.PredictedExpenses.Equal(decimal.NewFromInt(1500)))
	suite.Equal(monthUTC(0).AddDate(0, 1, 0), prediction.Month)
}

func (suite *AnalyticsServiceTestSuite) TestPrediction_NoHistoryIsZero() {
	ctx := context.Background()
	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, mock.Anything).Return([]domain.MonthlyFlow{}, nil).Once()

	prediction, err := suite.service.Prediction(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, prediction.SampleMonths)
	suite.True(prediction.PredictedIncome.IsZero())
	suite.True(prediction.PredictedExpenses.IsZero())
}

func (suite *AnalyticsServiceTestSuite) TestInsights_AllHeuristicsFire() {
	ctx := context.Background()
	totals := []domain.CategoryTotal{
		{Category: domain.CategoryDining, Total: decimal.NewFromInt(420), Count: 12},
	}
	flows := []domain.MonthlyFlow{
		{Month: monthUTC(2), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(1000)},
		{Month: monthUTC(1), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(1500)},
		// The in-progress month is always partial and must not feed the delta.
		{Month: monthUTC(0), Income: decimal.NewFromInt(200), Expenses: decimal.NewFromInt(80)},
	}

	suite.mockReportingRepo.On("CategoryTotals", ctx, suite.userID, mock.Anything, mock.Anything).Return(totals, nil).Once()
	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, 3).Return(flows, nil).Once()
	suite.mockReportingRepo.On("UrgentCount", ctx, suite.userID, mock.Anything, mock.Anything).Return(3, nil).Once()

	insights, err := suite.service.Insights(ctx, suite.userID)

	suite.Require().NoError(err)
	kinds := make(map[domain.InsightKind]domain.Insight, len(insights))
	for _, in := range insights {
		kinds[in.Kind] = in
	}
	suite.Contains(kinds, domain.InsightTopCategory)
	suite.Contains(kinds, domain.InsightSpendDelta)
	suite.Contains(kinds, domain.InsightSavingsRate)
	suite.Contains(kinds, domain.InsightUrgentCount)
	suite.Equal("50.0", kinds[domain.InsightSpendDelta].Value) // 1000 -> 1500 across the complete months
	suite.Equal("50.0", kinds[domain.InsightSavingsRate].Value)
	suite.Equal("3", kinds[domain.InsightUrgentCount].Value)
}

func (suite *AnalyticsServiceTestSuite) TestInsights_PartialMonthExcludedFromSpendDelta() {
	ctx := context.Background()
	flows := []domain.MonthlyFlow{
		{Month: monthUTC(1), Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(1500)},
		// Only a few days into the current month: a naive comparison would
		// report spending sharply down.
		{Month: monthUTC(0), Income: decimal.NewFromInt(300), Expenses: decimal.NewFromInt(100)},
	}

	suite.mockReportingRepo.On("CategoryTotals", ctx, suite.userID, mock.Anything, mock.Anything).Return([]domain.CategoryTotal{}, nil).Once()
	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, 3).Return(flows, nil).Once()
	suite.mockReportingRepo.On("UrgentCount", ctx, suite.userID, mock.Anything, mock.Anything).Return(0, nil).Once()

	insights, err := suite.service.Insights(ctx, suite.userID)

	suite.Require().NoError(err)
	for _, in := range insights {
		suite.NotEqual(domain.InsightSpendDelta, in.Kind)
		suite.NotEqual(domain.InsightSavingsRate, in.Kind)
	}
}

func (suite *AnalyticsServiceTestSuite) TestInsights_QuietAccountProducesNone() {
	ctx := context.Background()

	suite.mockReportingRepo.On("CategoryTotals", ctx, suite.userID, mock.Anything, mock.Anything).Return([]domain.CategoryTotal{}, nil).Once()
	suite.mockReportingRepo.On("MonthlyFlows", ctx, suite.userID, 3).Return([]domain.MonthlyFlow{}, nil).Once()
	suite.mockReportingRepo.On("UrgentCount", ctx, suite.userID, mock.Anything, mock.Anything).Return(0, nil).Once()

	insights, err := suite.service.Insights(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Empty(insights)
}

func TestAnalyticsService(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}
