package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// SyncError is a failed sync: the step that failed and the classified cause.
type SyncError struct {
	State model.SyncState
	Err   *model.Error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed while %s: %v", e.State, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// SyncService mirrors one base at a time: it fetches the full snapshot,
// builds the tree, ensures the webhook subscription and publishes the tree
// to the mirror cache. Every step runs sequentially.
type SyncService struct {
	client   driven.AirtableClient
	webhooks *WebhookManager
	mirror   *MirrorCache
	runs     driven.SyncRunStore
	now      func() time.Time
}

// NewSyncService creates a new SyncService. runs may be nil to skip the sync
// history.
func NewSyncService(
	client driven.AirtableClient,
	webhooks *WebhookManager,
	mirror *MirrorCache,
	runs driven.SyncRunStore,
) *SyncService {
	return &SyncService{
		client:   client,
		webhooks: webhooks,
		mirror:   mirror,
		runs:     runs,
		now:      time.Now,
	}
}

// syncRun tracks one SyncBase call.
type syncRun struct {
	model.SyncRun
	log *slog.Logger
}

func (r *syncRun) enter(state model.SyncState) {
	r.State = state
	r.log.Debug("sync state", "state", state)
}

// SyncBase fetches and builds the full tree of baseID and makes sure a
// webhook subscription exists for it. On failure it returns a *SyncError and
// no tree; nothing built so far is kept.
func (s *SyncService) SyncBase(ctx context.Context, authToken, baseID string) (*model.Base, error) {
	run := &syncRun{
		SyncRun: model.SyncRun{
			SyncID:    uuid.NewString(),
			BaseID:    baseID,
			State:     model.SyncStateIdle,
			StartedAt: s.now(),
		},
	}
	run.log = slog.With("sync_id", run.SyncID, "base_id", baseID)
	run.log.Info("sync started")

	base, err := s.syncBase(ctx, run, authToken, baseID)
	if err != nil {
		classified := classify(err)
		run.ErrorKind = classified.Kind
		run.Message = classified.PublicMessage()
		run.log.Error("sync failed", "state", run.State, "kind", classified.Kind, "error", err)
		s.record(ctx, run)
		return nil, &SyncError{State: run.State, Err: classified}
	}

	run.enter(model.SyncStateDone)
	s.mirror.Put(run.SyncID, *base)
	s.record(ctx, run)
	run.log.Info("sync completed",
		"tables", run.TableCount,
		"records", run.RecordCount,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return base, nil
}

func (s *SyncService) syncBase(ctx context.Context, run *syncRun, authToken, baseID string) (*model.Base, error) {
	run.enter(model.SyncStateFetchingBases)
	bases, err := s.client.ListBases(ctx, authToken)
	if err != nil {
		return nil, err
	}

	var rawBase *model.RawBase
	for i := range bases {
		if bases[i].ID == baseID {
			rawBase = &bases[i]
			break
		}
	}
	if rawBase == nil {
		return nil, model.NewNotFoundError(fmt.Sprintf("Could not find Airtable Base: '%s'", baseID))
	}

	run.enter(model.SyncStateFetchingTables)
	rawTables, err := s.client.ListTables(ctx, authToken, baseID)
	if err != nil {
		return nil, err
	}

	run.enter(model.SyncStateFetchingRecords)
	rawRecords := make(map[string][]model.RawRecord, len(rawTables))
	for _, t := range rawTables {
		records, err := s.client.ListRecords(ctx, authToken, baseID, t.ID)
		if err != nil {
			return nil, err
		}
		rawRecords[t.ID] = records
		run.log.Debug("table records fetched", "table_id", t.ID, "records", len(records))
	}

	run.enter(model.SyncStateBuilding)
	tables := make(map[string]model.Table, len(rawTables))
	for _, t := range rawTables {
		fields := BuildFields(t.Fields)
		records, err := BuildRecords(rawRecords[t.ID], fields)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.ID, err)
		}
		table, err := BuildTable(t, fields, records)
		if err != nil {
			return nil, err
		}
		s.logMismatches(run.log, table)
		tables[table.ID] = table
	}
	base := BuildBase(*rawBase, tables)
	run.TableCount = len(base.Tables)
	run.RecordCount = base.RecordCount()

	run.enter(model.SyncStateSubscribing)
	if _, err := s.webhooks.EnsureSubscription(ctx, authToken, baseID); err != nil {
		return nil, err
	}

	return &base, nil
}

// mismatchLogLimit caps how many individual mismatches are logged per table.
const mismatchLogLimit = 10

func (s *SyncService) logMismatches(log *slog.Logger, table model.Table) {
	mismatches := CheckCellTypes(table)
	if len(mismatches) == 0 {
		return
	}

	log.Warn("cell values do not match field types", "table_id", table.ID, "count", len(mismatches))
	for i, m := range mismatches {
		if i == mismatchLogLimit {
			break
		}
		log.Debug("cell type mismatch",
			"table_id", m.TableID,
			"record_id", m.RecordID,
			"field_id", m.FieldID,
			"field_type", m.FieldType,
			"got", m.Got,
		)
	}
}

// record persists the run outcome. History is best effort and never fails
// the sync.
func (s *SyncService) record(ctx context.Context, run *syncRun) {
	run.FinishedAt = s.now()
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(context.WithoutCancel(ctx), run.SyncRun); err != nil {
		run.log.Error("failed to record sync run", "error", err)
	}
}

// RecentRuns returns the latest sync outcomes, newest first. An empty baseID
// covers every base.
func (s *SyncService) RecentRuns(ctx context.Context, baseID string, limit int) ([]model.SyncRun, error) {
	if s.runs == nil {
		return []model.SyncRun{}, nil
	}
	runs, err := s.runs.ListRecent(ctx, baseID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}
