package handlers

import (
	"net/http"
	"time"

	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// defaultAnalyticsWindow is the trailing window applied when the caller gives
// no explicit date range.
const defaultAnalyticsWindow = 30 * 24 * time.Hour

type analyticsHandler struct {
	analyticsService portssvc.AnalyticsSvcFacade
}

func newAnalyticsHandler(as portssvc.AnalyticsSvcFacade) *analyticsHandler {
	return &analyticsHandler{analyticsService: as}
}

func registerAnalyticsRoutes(rg *gin.RouterGroup, analyticsService portssvc.AnalyticsSvcFacade) {
	h := newAnalyticsHandler(analyticsService)

	analytics := rg.Group("/analytics")
	{
		analytics.GET("/categories", h.getCategoryTotals)
		analytics.GET("/income-expense", h.getIncomeExpense)
		analytics.GET("/insights", h.getInsights)
		analytics.GET("/prediction", h.getPrediction)
	}
}

// getCategoryTotals godoc
// @Summary Spending totals per category
// @Description Sums expense amounts per category within the date window. Defaults to the trailing 30 days.
// @Tags analytics
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD, inclusive)"
// @Param endDate query string false "Window end (YYYY-MM-DD, exclusive)"
// @Success 200 {object} dto.CategoryTotalsResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Security BearerAuth
// @Router /analytics/categories [get]
func (h *analyticsHandler) getCategoryTotals(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var params dto.AnalyticsRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}

	from, to, err := resolveRange(params)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	totals, err := h.analyticsService.CategoryTotals(c.Request.Context(), userID, from, to)
	if err != nil {
		respondError(c, err, "Failed to aggregate categories")
		return
	}

	c.JSON(http.StatusOK, dto.CategoryTotalsResponse{Totals: totals})
}

// resolveRange turns the optional string dates into a concrete [from, to)
// window, defaulting to the trailing 30 days ending now.
func resolveRange(params dto.AnalyticsRangeParams) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.Add(-defaultAnalyticsWindow)

	if params.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", params.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if params.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", params.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// Exclusive bound: include the whole end day.
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// getIncomeExpense godoc
// @Summary Monthly income vs expense series
// @Tags analytics
// @Produce json
// @Param months query int false "Trailing months to cover" default(6) minimum(1) maximum(36)
// @Success 200 {object} dto.IncomeExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /analytics/income-expense [get]
func (h *analyticsHandler) getIncomeExpense(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var params dto.IncomeExpenseParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}

	series, err := h.analyticsService.IncomeExpense(c.Request.Context(), userID, params.Months)
	if err != nil {
		respondError(c, err, "Failed to build series")
		return
	}

	c.JSON(http.StatusOK, dto.IncomeExpenseResponse{Series: series})
}

// getInsights godoc
// @Summary Heuristic insights over recent activity
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.InsightsResponse
// @Security BearerAuth
// @Router /analytics/insights [get]
func (h *analyticsHandler) getInsights(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	insights, err := h.analyticsService.Insights(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to generate insights")
		return
	}

	c.JSON(http.StatusOK, dto.InsightsResponse{Insights: insights})
}

// getPrediction godoc
// @Summary Next-month income and expense estimate
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.PredictionResponse
// @Security BearerAuth
// @Router /analytics/prediction [get]
func (h *analyticsHandler) getPrediction(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	prediction, err := h.analyticsService.Prediction(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to compute prediction")
		return
	}

	c.JSON(http.StatusOK, dto.PredictionResponse{Prediction: *prediction})
}
