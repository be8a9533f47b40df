package driven

import "context"

// WebhookEntryStore defines the driven port for webhook entry persistence.
// Entries are stored as a flat field map per base id so that partial or
// corrupted records stay observable and can be purged by the caller.
type WebhookEntryStore interface {
	// GetFields returns every stored field for baseID.
	// Returns an empty map if nothing is stored.
	GetFields(ctx context.Context, baseID string) (map[string]string, error)

	// SetFields upserts the given fields for baseID atomically.
	SetFields(ctx context.Context, baseID string, fields map[string]string) error

	// DeleteFields removes the named fields for baseID. Missing fields are
	// not an error.
	DeleteFields(ctx context.Context, baseID string, keys []string) error

	// ListBaseIDs returns every base id with at least one stored field.
	ListBaseIDs(ctx context.Context) ([]string, error)
}
