package models

import (
	"database/sql"
	"time"
)

// SyncJob is the persistence representation of one aggregator sync run.
type SyncJob struct {
	JobID      string         `db:"job_id"`
	UserID     string         `db:"user_id"`
	Scope      string         `db:"scope"`
	Status     string         `db:"status"`
	StartedAt  time.Time      `db:"started_at"`
	FinishedAt *time.Time     `db:"finished_at"`
	Error      sql.NullString `db:"error"`
	Added      int            `db:"added"`
	Updated    int            `db:"updated"`
	Removed    int            `db:"removed"`
}
