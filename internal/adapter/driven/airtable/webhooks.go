package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// webhookDataTypes selects notifications for record data, field schema and
// table metadata changes.
var webhookDataTypes = []string{"tableData", "tableFields", "tableMetadata"}

type createWebhookRequest struct {
	NotificationURL string               `json:"notificationUrl"`
	Specification   webhookSpecification `json:"specification"`
}

type webhookSpecification struct {
	Options webhookOptions `json:"options"`
}

type webhookOptions struct {
	Filters webhookFilters `json:"filters"`
}

type webhookFilters struct {
	DataTypes []string `json:"dataTypes"`
}

type createWebhookResponse struct {
	ID              string     `json:"id"`
	MACSecretBase64 string     `json:"macSecretBase64"`
	ExpirationTime  *time.Time `json:"expirationTime"`
}

type refreshWebhookResponse struct {
	ExpirationTime *time.Time `json:"expirationTime"`
}

type listWebhooksResponse struct {
	Webhooks []webhookJSON `json:"webhooks"`
}

type webhookJSON struct {
	ID                             string     `json:"id"`
	NotificationURL                string     `json:"notificationUrl"`
	IsHookEnabled                  bool       `json:"isHookEnabled"`
	AreNotificationsEnabled        bool       `json:"areNotificationsEnabled"`
	CursorForNextPayload           int        `json:"cursorForNextPayload"`
	LastSuccessfulNotificationTime *time.Time `json:"lastSuccessfulNotificationTime"`
	ExpirationTime                 *time.Time `json:"expirationTime"`
}

// CreateWebhook registers a webhook for the base pointing at the configured
// notification URL.
func (c *Client) CreateWebhook(ctx context.Context, authToken, baseID string) (*model.CreatedWebhook, error) {
	body := createWebhookRequest{
		NotificationURL: c.notificationURL,
		Specification: webhookSpecification{
			Options: webhookOptions{Filters: webhookFilters{DataTypes: webhookDataTypes}},
		},
	}

	var resp createWebhookResponse
	op := fmt.Sprintf("create webhook for %s", baseID)
	if err := c.do(ctx, op, authToken, http.MethodPost, basePath(baseID)+"/webhooks", nil, body, &resp); err != nil {
		return nil, err
	}

	return &model.CreatedWebhook{
		ID:              resp.ID,
		MACSecretBase64: resp.MACSecretBase64,
		ExpirationTime:  resp.ExpirationTime,
	}, nil
}

// RefreshWebhook extends the webhook's upstream expiry.
func (c *Client) RefreshWebhook(ctx context.Context, authToken, baseID, webhookID string) (*model.CreatedWebhook, error) {
	var resp refreshWebhookResponse
	op := fmt.Sprintf("refresh webhook %s for %s", webhookID, baseID)
	path := basePath(baseID) + "/webhooks/" + url.PathEscape(webhookID) + "/refresh"
	if err := c.do(ctx, op, authToken, http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, mapWebhookNotFound(err)
	}

	return &model.CreatedWebhook{ID: webhookID, ExpirationTime: resp.ExpirationTime}, nil
}

// DeleteWebhook removes the webhook upstream.
func (c *Client) DeleteWebhook(ctx context.Context, authToken, baseID, webhookID string) error {
	op := fmt.Sprintf("delete webhook %s for %s", webhookID, baseID)
	path := basePath(baseID) + "/webhooks/" + url.PathEscape(webhookID)
	if err := c.do(ctx, op, authToken, http.MethodDelete, path, nil, nil, nil); err != nil {
		return mapWebhookNotFound(err)
	}
	return nil
}

// ListWebhooks returns every webhook registered on the base.
func (c *Client) ListWebhooks(ctx context.Context, authToken, baseID string) ([]model.WebhookInfo, error) {
	var resp listWebhooksResponse
	op := fmt.Sprintf("list webhooks for %s", baseID)
	if err := c.do(ctx, op, authToken, http.MethodGet, basePath(baseID)+"/webhooks", nil, nil, &resp); err != nil {
		return nil, err
	}

	hooks := make([]model.WebhookInfo, 0, len(resp.Webhooks))
	for _, w := range resp.Webhooks {
		hooks = append(hooks, model.WebhookInfo{
			ID:                             w.ID,
			NotificationURL:                w.NotificationURL,
			IsHookEnabled:                  w.IsHookEnabled,
			AreNotificationsEnabled:        w.AreNotificationsEnabled,
			CursorForNextPayload:           w.CursorForNextPayload,
			LastSuccessfulNotificationTime: w.LastSuccessfulNotificationTime,
			ExpirationTime:                 w.ExpirationTime,
		})
	}
	return hooks, nil
}

// mapWebhookNotFound tags a 404 with driven.ErrWebhookNotFound while keeping
// the status error in the chain.
func mapWebhookNotFound(err error) error {
	var statusErr *driven.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", driven.ErrWebhookNotFound, err)
	}
	return err
}
