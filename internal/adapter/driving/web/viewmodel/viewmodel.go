// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// StatusPageViewModel is everything the status page renders.
type StatusPageViewModel struct {
	GeneratedAt   string
	CSRFToken     string
	Bases         []BaseViewModel
	Subscriptions []SubscriptionViewModel
	Runs          []SyncRunViewModel
	// Error is set when part of the page could not be loaded.
	Error string
}

// BaseViewModel is one mirrored base.
type BaseViewModel struct {
	ID               string
	Name             string
	SyncID           string
	SyncedAt         string
	LastNotification string
	Notifications    int
	RecordCount      int
	Tables           []TableViewModel
}

// TableViewModel is one table of a mirrored base.
type TableViewModel struct {
	ID           string
	Name         string
	PrimaryField string
	FieldCount   int
	RecordCount  int
	// DescriptionHTML is sanitized markdown output, safe to emit unescaped.
	DescriptionHTML string
}

// SubscriptionViewModel is one stored webhook entry.
type SubscriptionViewModel struct {
	BaseID          string
	WebhookID       string
	ExpiresAt       string
	Expired         bool
	UnsubscribePath string
}

// SyncRunViewModel is one row of the sync history.
type SyncRunViewModel struct {
	SyncID      string
	BaseID      string
	State       string
	Succeeded   bool
	Message     string
	RecordCount int
	FinishedAt  string
	Duration    string
}
