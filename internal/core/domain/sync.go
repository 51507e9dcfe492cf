package domain

import "time"

// SyncScope identifies which aggregator surface a sync job covers.
type SyncScope string

const (
	SyncAccounts     SyncScope = "ACCOUNTS"
	SyncTransactions SyncScope = "TRANSACTIONS"
	SyncUser         SyncScope = "USER"
)

// SyncStatus is the lifecycle state of a sync job.
type SyncStatus string

const (
	SyncRunning   SyncStatus = "RUNNING"
	SyncCompleted SyncStatus = "COMPLETED"
	SyncFailed    SyncStatus = "FAILED"
)

// SyncJob is a persisted record of one sync run. At most one RUNNING job may
// exist per (user, scope); the repository enforces this with a conditional
// write so the guard holds across server instances.
type SyncJob struct {
	JobID      string     `json:"jobID"` // Primary Key (UUID)
	UserID     string     `json:"userID"`
	Scope      SyncScope  `json:"scope"`
	Status     SyncStatus `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`

	// Counters reported back to the caller.
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}
