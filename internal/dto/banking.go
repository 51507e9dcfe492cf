package dto

import (
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// CreateLinkTokenResponse carries the short-lived token the client hands to
// the aggregator widget.
type CreateLinkTokenResponse struct {
	LinkToken  string    `json:"linkToken"`
	Expiration time.Time `json:"expiration"`
}

// ExchangePublicTokenRequest carries the public token produced by the
// aggregator widget after the user completes the link flow.
type ExchangePublicTokenRequest struct {
	PublicToken string `json:"publicToken" binding:"required"`
}

// ExchangePublicTokenResponse lists the accounts created by the exchange.
type ExchangePublicTokenResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AggregatorWebhookRequest is the subset of the aggregator webhook payload
// the server acts on.
type AggregatorWebhookRequest struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// SyncJobResponse is the API shape of a sync job record.
type SyncJobResponse struct {
	JobID       string            `json:"jobID"`
	Scope       domain.SyncScope  `json:"scope"`
	Status      domain.SyncStatus `json:"status"`
	Added       int               `json:"added"`
	Updated     int               `json:"updated"`
	Removed     int               `json:"removed"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"startedAt"`
	FinishedAt  *time.Time        `json:"finishedAt,omitempty"`
}

// ToSyncJobResponse converts a domain.SyncJob to its API shape.
func ToSyncJobResponse(job *domain.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		JobID:      job.JobID,
		Scope:      job.Scope,
		Status:     job.Status,
		Added:      job.Added,
		Updated:    job.Updated,
		Removed:    job.Removed,
		Error:      job.Error,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}
