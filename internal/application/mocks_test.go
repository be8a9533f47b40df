package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// --- Mock implementations ---

// mockAirtableClient serves canned listings and counts webhook calls.
type mockAirtableClient struct {
	bases   []model.RawBase
	tables  []model.RawTable
	records map[string][]model.RawRecord

	listBasesErr  error
	createErr     error
	refreshErr    error
	deleteErr     error
	createWebhook func(baseID string) *model.CreatedWebhook
	onCreate      func()

	creates    atomic.Int32
	refreshes  atomic.Int32
	deletes    atomic.Int32
	refreshIDs []string
	deletedIDs []string
	mu         sync.Mutex
}

func (m *mockAirtableClient) ListBases(_ context.Context, _ string) ([]model.RawBase, error) {
	if m.listBasesErr != nil {
		return nil, m.listBasesErr
	}
	return m.bases, nil
}

func (m *mockAirtableClient) ListTables(_ context.Context, _, _ string) ([]model.RawTable, error) {
	return m.tables, nil
}

func (m *mockAirtableClient) ListRecords(_ context.Context, _, _, tableID string) ([]model.RawRecord, error) {
	return m.records[tableID], nil
}

func (m *mockAirtableClient) CreateWebhook(_ context.Context, _, baseID string) (*model.CreatedWebhook, error) {
	m.creates.Add(1)
	if m.onCreate != nil {
		m.onCreate()
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createWebhook != nil {
		return m.createWebhook(baseID), nil
	}
	return &model.CreatedWebhook{ID: "achNew", MACSecretBase64: "c2VjcmV0"}, nil
}

func (m *mockAirtableClient) RefreshWebhook(_ context.Context, _, _, webhookID string) (*model.CreatedWebhook, error) {
	m.refreshes.Add(1)
	m.mu.Lock()
	m.refreshIDs = append(m.refreshIDs, webhookID)
	m.mu.Unlock()
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &model.CreatedWebhook{ID: webhookID}, nil
}

func (m *mockAirtableClient) DeleteWebhook(_ context.Context, _, _, webhookID string) error {
	m.deletes.Add(1)
	m.mu.Lock()
	m.deletedIDs = append(m.deletedIDs, webhookID)
	m.mu.Unlock()
	return m.deleteErr
}

func (m *mockAirtableClient) ListWebhooks(_ context.Context, _, _ string) ([]model.WebhookInfo, error) {
	return []model.WebhookInfo{{ID: "achW1", IsHookEnabled: true}}, nil
}

var _ driven.AirtableClient = (*mockAirtableClient)(nil)

// memEntryStore is an in-memory WebhookEntryStore.
type memEntryStore struct {
	mu      sync.Mutex
	data    map[string]map[string]string
	setErr  error
	getErr  error
	deletes int
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{data: make(map[string]map[string]string)}
}

func (s *memEntryStore) GetFields(_ context.Context, baseID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := make(map[string]string, len(s.data[baseID]))
	for k, v := range s.data[baseID] {
		out[k] = v
	}
	return out, nil
}

func (s *memEntryStore) SetFields(_ context.Context, baseID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	if s.data[baseID] == nil {
		s.data[baseID] = make(map[string]string)
	}
	for k, v := range fields {
		s.data[baseID][k] = v
	}
	return nil
}

func (s *memEntryStore) DeleteFields(_ context.Context, baseID string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	for _, k := range keys {
		delete(s.data[baseID], k)
	}
	if len(s.data[baseID]) == 0 {
		delete(s.data, baseID)
	}
	return nil
}

func (s *memEntryStore) ListBaseIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memEntryStore) fields(baseID string) map[string]string {
	f, _ := s.GetFields(context.Background(), baseID)
	return f
}

var _ driven.WebhookEntryStore = (*memEntryStore)(nil)

// memRunStore records sync runs in memory.
type memRunStore struct {
	mu   sync.Mutex
	runs []model.SyncRun
}

func (s *memRunStore) Record(_ context.Context, run model.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *memRunStore) ListRecent(_ context.Context, baseID string, limit int) ([]model.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SyncRun
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if baseID == "" || s.runs[i].BaseID == baseID {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}

var _ driven.SyncRunStore = (*memRunStore)(nil)

var errStoreDown = errors.New("store down")
