package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/finbook/finbook_backend/internal/apperrors"
	"github.com/finbook/finbook_backend/internal/core/domain"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// bankingHandler handles HTTP requests for the bank-aggregator integration.
type bankingHandler struct {
	bankingService portssvc.BankingSvcFacade
}

func newBankingHandler(bs portssvc.BankingSvcFacade) *bankingHandler {
	return &bankingHandler{bankingService: bs}
}

// registerBankingRoutes registers the authenticated banking routes.
func registerBankingRoutes(rg *gin.RouterGroup, bankingService portssvc.BankingSvcFacade) {
	h := newBankingHandler(bankingService)

	banking := rg.Group("/banking")
	{
		banking.POST("/create-link-token", h.createLinkToken)
		banking.POST("/exchange-public-token", h.exchangePublicToken)
		banking.POST("/sync-accounts", h.syncAccounts)
		banking.POST("/sync-transactions", h.syncTransactions)
		banking.POST("/sync-user", h.syncUser)
		banking.GET("/sync-status", h.getSyncStatus)
	}
}

// RegisterBankingWebhookRoute registers the unauthenticated webhook endpoint.
// The aggregator cannot send a bearer token.
func RegisterBankingWebhookRoute(r *gin.Engine, bankingService portssvc.BankingSvcFacade) {
	h := newBankingHandler(bankingService)
	r.POST("/api/v1/banking/webhook", h.handleWebhook)
}

// createLinkToken godoc
// @Summary Start a bank-link flow
// @Tags banking
// @Produce json
// @Success 200 {object} dto.CreateLinkTokenResponse
// @Failure 500 {object} map[string]string "Failed to create link token"
// @Security BearerAuth
// @Router /banking/create-link-token [post]
func (h *bankingHandler) createLinkToken(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	token, err := h.bankingService.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to create link token")
		return
	}

	c.JSON(http.StatusOK, dto.CreateLinkTokenResponse{
		LinkToken:  token,
		Expiration: time.Now().Add(30 * time.Minute),
	})
}

// exchangePublicToken godoc
// @Summary Complete a bank-link flow
// @Description Exchanges the public token from the link widget and creates linked accounts.
// @Tags banking
// @Accept json
// @Produce json
// @Param exchange body dto.ExchangePublicTokenRequest true "Public token"
// @Success 200 {object} dto.ExchangePublicTokenResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to exchange token"
// @Security BearerAuth
// @Router /banking/exchange-public-token [post]
func (h *bankingHandler) exchangePublicToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.ExchangePublicTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ExchangePublicToken", slog.String("error", err.Error()))
		respondBadRequest(c, err)
		return
	}

	accounts, err := h.bankingService.ExchangePublicToken(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to exchange token")
		return
	}

	c.JSON(http.StatusOK, dto.ExchangePublicTokenResponse{Accounts: dto.ToAccountResponses(accounts)})
}

// runSync executes one of the sync operations and renders the job record.
func (h *bankingHandler) runSync(c *gin.Context, run func(ctx context.Context, userID string) (*domain.SyncJob, error)) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	job, err := run(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) || job == nil {
			respondError(c, err, "Failed to run sync")
			return
		}
		// A failed run still produced a job record worth returning.
		c.JSON(http.StatusBadGateway, gin.H{
			"message": "Sync failed",
			"error":   "sync failed",
			"job":     dto.ToSyncJobResponse(job),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToSyncJobResponse(job))
}

// syncAccounts godoc
// @Summary Sync linked account balances
// @Tags banking
// @Produce json
// @Success 200 {object} dto.SyncJobResponse
// @Failure 409 {object} map[string]string "A sync is already running"
// @Failure 500 {object} map[string]string "Failed to run sync"
// @Security BearerAuth
// @Router /banking/sync-accounts [post]
func (h *bankingHandler) syncAccounts(c *gin.Context) {
	h.runSync(c, h.bankingService.SyncAccounts)
}

// syncTransactions godoc
// @Summary Sync transactions from the aggregator
// @Description Imports transaction deltas idempotently; every write goes through the ledger.
// @Tags banking
// @Produce json
// @Success 200 {object} dto.SyncJobResponse
// @Failure 409 {object} map[string]string "A sync is already running"
// @Failure 500 {object} map[string]string "Failed to run sync"
// @Security BearerAuth
// @Router /banking/sync-transactions [post]
func (h *bankingHandler) syncTransactions(c *gin.Context) {
	h.runSync(c, h.bankingService.SyncTransactions)
}

// syncUser godoc
// @Summary Sync account-holder identity
// @Tags banking
// @Produce json
// @Success 200 {object} dto.SyncJobResponse
// @Failure 409 {object} map[string]string "A sync is already running"
// @Failure 500 {object} map[string]string "Failed to run sync"
// @Security BearerAuth
// @Router /banking/sync-user [post]
func (h *bankingHandler) syncUser(c *gin.Context) {
	h.runSync(c, h.bankingService.SyncUser)
}

// getSyncStatus godoc
// @Summary Latest sync job for a scope
// @Tags banking
// @Produce json
// @Param scope query string true "Sync scope" Enums(ACCOUNTS, TRANSACTIONS, USER)
// @Success 200 {object} dto.SyncJobResponse
// @Failure 400 {object} map[string]string "Invalid scope"
// @Failure 404 {object} map[string]string "No sync has run for this scope"
// @Security BearerAuth
// @Router /banking/sync-status [get]
func (h *bankingHandler) getSyncStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	scope := domain.SyncScope(c.Query("scope"))
	switch scope {
	case domain.SyncAccounts, domain.SyncTransactions, domain.SyncUser:
	default:
		c.JSON(http.StatusBadRequest, errorBody("scope must be one of ACCOUNTS, TRANSACTIONS, USER", "invalid scope"))
		return
	}

	job, err := h.bankingService.GetSyncStatus(c.Request.Context(), userID, scope)
	if err != nil {
		respondError(c, err, "Failed to fetch sync status")
		return
	}

	c.JSON(http.StatusOK, dto.ToSyncJobResponse(job))
}

// handleWebhook godoc
// @Summary Aggregator webhook
// @Description Receives aggregator notifications. The Plaid-Verification signature is checked before the payload is trusted. Returns 200 for recognized payloads so the provider stops retrying.
// @Tags banking
// @Accept json
// @Produce json
// @Param Plaid-Verification header string true "Signature JWT"
// @Param webhook body dto.AggregatorWebhookRequest true "Webhook payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 401 {object} map[string]string "Signature verification failed"
// @Router /banking/webhook [post]
func (h *bankingHandler) handleWebhook(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	body, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.bankingService.VerifyWebhook(c.Request.Context(), body, c.GetHeader("Plaid-Verification")); err != nil {
		logger.Warn("Webhook signature rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "unauthorized"))
		return
	}

	var req dto.AggregatorWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondBadRequest(c, err)
		return
	}

	logger.Info("Webhook received", slog.String("type", req.WebhookType), slog.String("code", req.WebhookCode), slog.String("item_id", req.ItemID))

	if err := h.bankingService.HandleWebhook(c.Request.Context(), req); err != nil {
		respondError(c, err, "Failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
