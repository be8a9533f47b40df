package driven

import (
	"context"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// AirtableClient defines the driven port for the Airtable REST API. Every
// call is authenticated with the caller's personal access token; listing
// methods return the fully accumulated result across all pages.
type AirtableClient interface {
	// Read methods

	ListBases(ctx context.Context, authToken string) ([]model.RawBase, error)
	ListTables(ctx context.Context, authToken, baseID string) ([]model.RawTable, error)
	// ListRecords returns every record of a table with cells keyed by field id.
	ListRecords(ctx context.Context, authToken, baseID, tableID string) ([]model.RawRecord, error)

	// Webhook methods

	// CreateWebhook registers a webhook notifying on data, field and metadata
	// changes of the base.
	CreateWebhook(ctx context.Context, authToken, baseID string) (*model.CreatedWebhook, error)
	// RefreshWebhook extends the upstream expiry of an existing webhook and
	// returns the new expiration time, if upstream reports one.
	RefreshWebhook(ctx context.Context, authToken, baseID, webhookID string) (*model.CreatedWebhook, error)
	// DeleteWebhook returns ErrWebhookNotFound when upstream no longer knows
	// the webhook.
	DeleteWebhook(ctx context.Context, authToken, baseID, webhookID string) error
	ListWebhooks(ctx context.Context, authToken, baseID string) ([]model.WebhookInfo, error)
}
