package httphandler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// stubAirtable serves one base with one table and two records.
type stubAirtable struct {
	mu           sync.Mutex
	listBasesErr error
	deleteErr    error
	tokens       []string
	deleted      []string
	webhooks     []model.WebhookInfo
}

var _ driven.AirtableClient = (*stubAirtable)(nil)

func (s *stubAirtable) seen(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
}

func (s *stubAirtable) ListBases(_ context.Context, authToken string) ([]model.RawBase, error) {
	s.seen(authToken)
	if s.listBasesErr != nil {
		return nil, s.listBasesErr
	}
	return []model.RawBase{{ID: "appA", Name: "Inventory", PermissionLevel: "create"}}, nil
}

func (s *stubAirtable) ListTables(_ context.Context, _, _ string) ([]model.RawTable, error) {
	return []model.RawTable{{
		ID:             "tblA",
		Name:           "Parts",
		Description:    "All **parts**",
		PrimaryFieldID: "fldName",
		Fields: []model.RawField{
			{ID: "fldName", Name: "Name", Type: model.FieldTypeSingleLineText},
			{ID: "fldQty", Name: "Qty", Type: model.FieldTypeNumber},
		},
	}}, nil
}

func (s *stubAirtable) ListRecords(_ context.Context, _, _, _ string) ([]model.RawRecord, error) {
	return []model.RawRecord{
		{ID: "rec1", CreatedTime: "2026-01-01T00:00:00.000Z", Fields: map[string]model.CellValue{
			"fldName": model.TextValue("bolt"),
			"fldQty":  model.NumberValue(12),
		}},
		{ID: "rec2", CreatedTime: "2026-01-02T00:00:00.000Z", Fields: map[string]model.CellValue{
			"fldName": model.TextValue("nut"),
		}},
	}, nil
}

func (s *stubAirtable) CreateWebhook(_ context.Context, _, _ string) (*model.CreatedWebhook, error) {
	exp := time.Now().Add(7 * 24 * time.Hour)
	return &model.CreatedWebhook{ID: "achH", MACSecretBase64: "c2VjcmV0", ExpirationTime: &exp}, nil
}

func (s *stubAirtable) RefreshWebhook(_ context.Context, _, _, _ string) (*model.CreatedWebhook, error) {
	exp := time.Now().Add(7 * 24 * time.Hour)
	return &model.CreatedWebhook{ID: "achH", ExpirationTime: &exp}, nil
}

func (s *stubAirtable) DeleteWebhook(_ context.Context, _, _, webhookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, webhookID)
	return s.deleteErr
}

func (s *stubAirtable) ListWebhooks(_ context.Context, authToken, _ string) ([]model.WebhookInfo, error) {
	s.seen(authToken)
	return s.webhooks, nil
}

type memEntryStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

var _ driven.WebhookEntryStore = (*memEntryStore)(nil)

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{data: make(map[string]map[string]string)}
}

func (m *memEntryStore) GetFields(_ context.Context, baseID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data[baseID]))
	for k, v := range m.data[baseID] {
		out[k] = v
	}
	return out, nil
}

func (m *memEntryStore) SetFields(_ context.Context, baseID string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[baseID] == nil {
		m.data[baseID] = make(map[string]string)
	}
	for k, v := range fields {
		m.data[baseID][k] = v
	}
	return nil
}

func (m *memEntryStore) DeleteFields(_ context.Context, baseID string, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data[baseID], k)
	}
	if len(m.data[baseID]) == 0 {
		delete(m.data, baseID)
	}
	return nil
}

func (m *memEntryStore) ListBaseIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memRunStore struct {
	mu   sync.Mutex
	runs []model.SyncRun
}

var _ driven.SyncRunStore = (*memRunStore)(nil)

func (m *memRunStore) Record(_ context.Context, run model.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRunStore) ListRecent(_ context.Context, baseID string, limit int) ([]model.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SyncRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if baseID == "" || m.runs[i].BaseID == baseID {
			out = append(out, m.runs[i])
		}
	}
	return out, nil
}
