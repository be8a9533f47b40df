package model

import "time"

// SyncState is a step of a base sync.
type SyncState string

const (
	SyncStateIdle            SyncState = "idle"
	SyncStateFetchingBases   SyncState = "fetching_bases"
	SyncStateFetchingTables  SyncState = "fetching_tables"
	SyncStateFetchingRecords SyncState = "fetching_records"
	SyncStateBuilding        SyncState = "building"
	SyncStateSubscribing     SyncState = "subscribing"
	SyncStateDone            SyncState = "done"
	SyncStateFailed          SyncState = "failed"
)

// SyncRun is the persisted outcome of one sync. On failure, State is the
// step that failed and ErrorKind classifies the failure.
type SyncRun struct {
	SyncID      string
	BaseID      string
	State       SyncState
	ErrorKind   ErrorKind
	Message     string
	TableCount  int
	RecordCount int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Succeeded reports whether the run reached SyncStateDone.
func (r SyncRun) Succeeded() bool {
	return r.State == SyncStateDone
}

// Duration returns how long the run took.
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
