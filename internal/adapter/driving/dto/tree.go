package dto

import (
	"time"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// BaseResponse is the delivered shape of a mirrored base.
type BaseResponse struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	Tables map[string]TableResponse `json:"tables"`
}

// TableResponse is the delivered shape of a table. PrimaryField is resolved
// from the table's own field mapping.
type TableResponse struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	Fields       map[string]FieldResponse  `json:"fields"`
	PrimaryField FieldResponse             `json:"primaryField"`
	Records      map[string]RecordResponse `json:"records"`
}

// FieldResponse is the delivered shape of a field.
type FieldResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// RecordResponse is the delivered shape of a record.
type RecordResponse struct {
	ID          string                  `json:"id"`
	CreatedTime string                  `json:"createdTime"`
	Cells       map[string]CellResponse `json:"cells"`
}

// CellResponse is the delivered shape of a cell.
type CellResponse struct {
	FieldID   string          `json:"fieldId"`
	FieldName string          `json:"fieldName"`
	Value     model.CellValue `json:"value"`
}

// WebhookResponse is an upstream webhook registration.
type WebhookResponse struct {
	ID                             string `json:"id"`
	NotificationURL                string `json:"notificationUrl"`
	IsHookEnabled                  bool   `json:"isHookEnabled"`
	AreNotificationsEnabled        bool   `json:"areNotificationsEnabled"`
	CursorForNextPayload           int    `json:"cursorForNextPayload"`
	LastSuccessfulNotificationTime string `json:"lastSuccessfulNotificationTime,omitempty"`
	ExpirationTime                 string `json:"expirationTime,omitempty"`
}

// SyncRunResponse is one entry of the sync history.
type SyncRunResponse struct {
	SyncID      string `json:"syncId"`
	BaseID      string `json:"baseId"`
	State       string `json:"state"`
	Succeeded   bool   `json:"succeeded"`
	ErrorKind   string `json:"errorKind,omitempty"`
	Message     string `json:"message,omitempty"`
	TableCount  int    `json:"tableCount"`
	RecordCount int    `json:"recordCount"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt"`
}

// FromBase converts a mirrored base to its delivered shape.
func FromBase(b model.Base) BaseResponse {
	tables := make(map[string]TableResponse, len(b.Tables))
	for id, t := range b.Tables {
		tables[id] = FromTable(t)
	}
	return BaseResponse{ID: b.ID, Name: b.Name, Tables: tables}
}

// FromTable converts a table to its delivered shape.
func FromTable(t model.Table) TableResponse {
	fields := make(map[string]FieldResponse, len(t.Fields))
	for id, f := range t.Fields {
		fields[id] = FromField(f)
	}
	records := make(map[string]RecordResponse, len(t.Records))
	for id, r := range t.Records {
		records[id] = FromRecord(r)
	}

	var primary FieldResponse
	if f, ok := t.PrimaryField(); ok {
		primary = FromField(f)
	}

	return TableResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Fields:       fields,
		PrimaryField: primary,
		Records:      records,
	}
}

// FromField converts a field to its delivered shape.
func FromField(f model.Field) FieldResponse {
	return FieldResponse{ID: f.ID, Name: f.Name, Description: f.Description, Type: string(f.Type)}
}

// FromRecord converts a record to its delivered shape.
func FromRecord(r model.Record) RecordResponse {
	cells := make(map[string]CellResponse, len(r.Cells))
	for id, c := range r.Cells {
		cells[id] = CellResponse{FieldID: c.FieldID, FieldName: c.FieldName, Value: c.Value}
	}
	return RecordResponse{ID: r.ID, CreatedTime: r.CreatedTime, Cells: cells}
}

// FromWebhooks converts upstream webhook registrations.
func FromWebhooks(hooks []model.WebhookInfo) []WebhookResponse {
	out := make([]WebhookResponse, 0, len(hooks))
	for _, h := range hooks {
		out = append(out, WebhookResponse{
			ID:                             h.ID,
			NotificationURL:                h.NotificationURL,
			IsHookEnabled:                  h.IsHookEnabled,
			AreNotificationsEnabled:        h.AreNotificationsEnabled,
			CursorForNextPayload:           h.CursorForNextPayload,
			LastSuccessfulNotificationTime: formatOptional(h.LastSuccessfulNotificationTime),
			ExpirationTime:                 formatOptional(h.ExpirationTime),
		})
	}
	return out
}

// FromSyncRuns converts sync history entries.
func FromSyncRuns(runs []model.SyncRun) []SyncRunResponse {
	out := make([]SyncRunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, SyncRunResponse{
			SyncID:      r.SyncID,
			BaseID:      r.BaseID,
			State:       string(r.State),
			Succeeded:   r.Succeeded(),
			ErrorKind:   string(r.ErrorKind),
			Message:     r.Message,
			TableCount:  r.TableCount,
			RecordCount: r.RecordCount,
			StartedAt:   r.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt:  r.FinishedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
