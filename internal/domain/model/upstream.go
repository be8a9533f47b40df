package model

import "time"

// RawBase is a base as listed upstream.
type RawBase struct {
	ID              string
	Name            string
	PermissionLevel string
}

// RawTable is a table as listed upstream, including its field schema.
type RawTable struct {
	ID             string
	Name           string
	Description    string
	PrimaryFieldID string
	Fields         []RawField
}

// RawField is a field schema entry as listed upstream.
type RawField struct {
	ID          string
	Name        string
	Description string
	Type        FieldType
}

// RawRecord is a record as listed upstream with cells keyed by field id.
type RawRecord struct {
	ID          string
	CreatedTime string
	Fields      map[string]CellValue
}

// CreatedWebhook is the upstream response to a webhook creation.
// ExpirationTime is nil when upstream omits it.
type CreatedWebhook struct {
	ID              string
	MACSecretBase64 string
	ExpirationTime  *time.Time
}

// WebhookInfo describes a webhook registration as listed upstream.
type WebhookInfo struct {
	ID                             string
	NotificationURL                string
	IsHookEnabled                  bool
	AreNotificationsEnabled        bool
	CursorForNextPayload           int
	LastSuccessfulNotificationTime *time.Time
	ExpirationTime                 *time.Time
}
