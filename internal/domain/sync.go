package domain

import "time"

// Sync run lifecycle statuses. A run is finalized exactly once; callers never
// observe a terminal run left in StatusRunning.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Trigger modes, carried as metadata only.
const (
	SyncTypeScheduled = "scheduled"
	SyncTypeManual    = "manual"
)

// Scope modes. Incremental passes the last-success timestamp to the source as
// an advisory hint; full forces an unfiltered fetch.
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// SyncRun is the append-only audit entry for one orchestrator run.
type SyncRun struct {
	ID             int64      `db:"id"`
	SyncID         string     `db:"sync_id"`
	SyncType       string     `db:"sync_type"`
	Source         string     `db:"sync_source"`
	Status         string     `db:"status"`
	TriggeredBy    string     `db:"triggered_by"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	RecordsNew     int        `db:"records_new"`
	RecordsUpdated int        `db:"records_updated"`
	RecordsFailed  int        `db:"records_failed"`
	PIDsProcessed  []string   `db:"-"`
	PIDsFailed     []string   `db:"-"`
	ErrorLog       *string    `db:"error_log"`
}

// SyncSummary is returned to the caller at the end of every run.
type SyncSummary struct {
	SyncID         string
	Status         string
	RecordsFetched int
	RecordsNew     int
	RecordsUpdated int
	RecordsFailed  int
	PIDsProcessed  []string
	PIDsFailed     []string
	ParseFailures  []ParseFailure
	Duration       time.Duration
}

// Diff is the reconciliation partition of one batch against the corpus.
type Diff struct {
	NeedsInsert []ParsedRecord
	NeedsUpdate []ParsedRecord
	Orphaned    []string
}

// ValidationReport compares a fetched batch against the corpus without
// mutating anything.
type ValidationReport struct {
	BatchPIDCount  int
	CorpusPIDCount int
	NeedsSync      []string
	Orphaned       []string
	AlreadySynced  []string
}
