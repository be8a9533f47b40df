package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// WebhookManager owns the lifecycle of the single webhook registration kept
// per base: find, create, refresh, expire and delete.
type WebhookManager struct {
	client driven.AirtableClient
	store  driven.WebhookEntryStore
	now    func() time.Time
	flight singleflight.Group
}

// NewWebhookManager creates a new WebhookManager.
func NewWebhookManager(client driven.AirtableClient, store driven.WebhookEntryStore) *WebhookManager {
	return &WebhookManager{
		client: client,
		store:  store,
		now:    time.Now,
	}
}

// Find returns the valid entry for baseID, or nil. A stored entry with any
// other key set than the four entry fields, or whose expiry has passed, is
// purged as a side effect and reported as absent.
func (m *WebhookManager) Find(ctx context.Context, baseID string) (*model.WebhookEntry, error) {
	fields, err := m.store.GetFields(ctx, baseID)
	if err != nil {
		return nil, model.NewTransportError(msgStore, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	entry, ok := model.WebhookEntryFromFields(baseID, fields)
	switch {
	case !ok:
		slog.Warn("purging malformed webhook entry", "base_id", baseID, "fields", len(fields))
	case entry.Expired(m.now()):
		slog.Info("purging expired webhook entry", "base_id", baseID, "expired_at", entry.ExpiresAt())
	default:
		return &entry, nil
	}

	if err := m.store.DeleteFields(ctx, baseID, fieldKeys(fields)); err != nil {
		return nil, model.NewTransportError(msgStore, err)
	}
	return nil, nil
}

// Create registers a new upstream webhook for the base and persists it.
// When upstream omits the expiration, the entry expires immediately and the
// next Find will purge it.
func (m *WebhookManager) Create(ctx context.Context, authToken, baseID string) (model.WebhookEntry, error) {
	created, err := m.client.CreateWebhook(ctx, authToken, baseID)
	if err != nil {
		return model.WebhookEntry{}, err
	}

	expiry := m.now()
	if created.ExpirationTime != nil {
		expiry = *created.ExpirationTime
	} else {
		slog.Warn("webhook created without expiration; entry will be treated as stale",
			"base_id", baseID, "webhook_id", created.ID)
	}

	entry := model.WebhookEntry{
		BaseID:          baseID,
		AuthToken:       authToken,
		WebhookID:       created.ID,
		MACSecret:       created.MACSecretBase64,
		ExpiryTimestamp: expiry.UnixMilli(),
	}

	if err := m.store.SetFields(ctx, baseID, entry.Fields()); err != nil {
		// Roll back the upstream registration; its secret was never stored.
		if delErr := m.client.DeleteWebhook(ctx, authToken, baseID, created.ID); delErr != nil {
			slog.Error("failed to remove orphaned webhook", "base_id", baseID, "webhook_id", created.ID, "error", delErr)
		}
		return model.WebhookEntry{}, model.NewTransportError(msgStore, err)
	}

	slog.Info("webhook created", "base_id", baseID, "webhook_id", entry.WebhookID, "expires_at", entry.ExpiresAt())
	return entry, nil
}

// EnsureSubscription refreshes the existing registration for the base or
// creates one. Concurrent calls for the same base share one execution and
// its result; calls for different bases never wait on each other.
func (m *WebhookManager) EnsureSubscription(ctx context.Context, authToken, baseID string) (model.WebhookEntry, error) {
	ch := m.flight.DoChan(baseID, func() (any, error) {
		// One waiter canceling must not fail the others.
		return m.ensure(context.WithoutCancel(ctx), authToken, baseID)
	})

	select {
	case <-ctx.Done():
		return model.WebhookEntry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.WebhookEntry{}, res.Err
		}
		if res.Shared {
			slog.Debug("webhook subscription shared with concurrent caller", "base_id", baseID)
		}
		return res.Val.(model.WebhookEntry), nil
	}
}

func (m *WebhookManager) ensure(ctx context.Context, authToken, baseID string) (model.WebhookEntry, error) {
	entry, err := m.Find(ctx, baseID)
	if err != nil {
		return model.WebhookEntry{}, err
	}
	if entry == nil {
		return m.Create(ctx, authToken, baseID)
	}

	refreshed, err := m.client.RefreshWebhook(ctx, authToken, baseID, entry.WebhookID)
	if errors.Is(err, driven.ErrWebhookNotFound) {
		slog.Warn("stored webhook unknown upstream; recreating", "base_id", baseID, "webhook_id", entry.WebhookID)
		if err := m.Delete(ctx, baseID); err != nil {
			return model.WebhookEntry{}, err
		}
		return m.Create(ctx, authToken, baseID)
	}
	if err != nil {
		return model.WebhookEntry{}, err
	}

	attrs := []any{"base_id", baseID, "webhook_id", entry.WebhookID}
	if refreshed.ExpirationTime != nil {
		attrs = append(attrs, "upstream_expires_at", *refreshed.ExpirationTime)
	}
	slog.Info("webhook refreshed", attrs...)

	return *entry, nil
}

// Delete removes whatever is stored for the base.
func (m *WebhookManager) Delete(ctx context.Context, baseID string) error {
	fields, err := m.store.GetFields(ctx, baseID)
	if err != nil {
		return model.NewTransportError(msgStore, err)
	}

	keys := fieldKeys(fields)
	for _, name := range model.EntryFieldNames {
		if _, ok := fields[name]; !ok {
			keys = append(keys, name)
		}
	}

	if err := m.store.DeleteFields(ctx, baseID, keys); err != nil {
		return model.NewTransportError(msgStore, err)
	}
	return nil
}

// Unsubscribe deletes the upstream webhook using the stored token, then the
// local entry. authToken must equal the token the subscription was created
// with; otherwise nothing is touched and an unauthorized error is returned.
// It reports whether anything was stored for the base. A webhook upstream no
// longer knows is not an error.
func (m *WebhookManager) Unsubscribe(ctx context.Context, authToken, baseID string) (bool, error) {
	if authToken == "" {
		return false, model.NewUnauthorizedError(msgTokenRequired, nil)
	}

	fields, err := m.store.GetFields(ctx, baseID)
	if err != nil {
		return false, model.NewTransportError(msgStore, err)
	}
	if len(fields) == 0 {
		return false, nil
	}

	// Expiry is irrelevant here: an expired local entry may still be live upstream.
	if entry, ok := model.WebhookEntryFromFields(baseID, fields); ok {
		if subtle.ConstantTimeCompare([]byte(authToken), []byte(entry.AuthToken)) != 1 {
			slog.Warn("unsubscribe rejected: token does not own subscription", "base_id", baseID)
			return true, model.NewUnauthorizedError(msgTokenMismatch, nil)
		}
		err := m.client.DeleteWebhook(ctx, entry.AuthToken, baseID, entry.WebhookID)
		if err != nil && !errors.Is(err, driven.ErrWebhookNotFound) {
			return true, classify(err)
		}
		slog.Info("webhook deleted upstream", "base_id", baseID, "webhook_id", entry.WebhookID)
	}

	if err := m.Delete(ctx, baseID); err != nil {
		return true, err
	}
	return true, nil
}

// ListUpstream returns the webhooks registered upstream for the base.
func (m *WebhookManager) ListUpstream(ctx context.Context, authToken, baseID string) ([]model.WebhookInfo, error) {
	hooks, err := m.client.ListWebhooks(ctx, authToken, baseID)
	if err != nil {
		return nil, classify(err)
	}
	return hooks, nil
}

// Subscription is the non-secret view of a stored webhook entry.
type Subscription struct {
	BaseID    string
	WebhookID string
	ExpiresAt time.Time
	Expired   bool
}

// Subscriptions lists every well-formed stored entry without purging
// anything. Secrets and tokens are not included.
func (m *WebhookManager) Subscriptions(ctx context.Context) ([]Subscription, error) {
	baseIDs, err := m.store.ListBaseIDs(ctx)
	if err != nil {
		return nil, model.NewTransportError(msgStore, err)
	}

	now := m.now()
	subs := make([]Subscription, 0, len(baseIDs))
	for _, baseID := range baseIDs {
		fields, err := m.store.GetFields(ctx, baseID)
		if err != nil {
			return nil, model.NewTransportError(msgStore, fmt.Errorf("base %s: %w", baseID, err))
		}
		entry, ok := model.WebhookEntryFromFields(baseID, fields)
		if !ok {
			continue
		}
		subs = append(subs, Subscription{
			BaseID:    baseID,
			WebhookID: entry.WebhookID,
			ExpiresAt: entry.ExpiresAt(),
			Expired:   entry.Expired(now),
		})
	}
	return subs, nil
}

func fieldKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}
