package model

import (
	"strconv"
	"time"
)

// Persisted field names of a webhook entry.
const (
	EntryFieldAuthToken       = "authToken"
	EntryFieldWebhookID       = "webhookId"
	EntryFieldMACSecret       = "macSecret"
	EntryFieldExpiryTimestamp = "expiryTimestamp"
)

// EntryFieldNames lists every field a valid stored entry must carry.
var EntryFieldNames = []string{
	EntryFieldAuthToken,
	EntryFieldWebhookID,
	EntryFieldMACSecret,
	EntryFieldExpiryTimestamp,
}

// WebhookEntry is the locally persisted registration of one upstream webhook,
// keyed by base id.
type WebhookEntry struct {
	BaseID          string
	AuthToken       string
	WebhookID       string
	MACSecret       string // base64-encoded
	ExpiryTimestamp int64  // epoch milliseconds
}

// WebhookEntryFromFields parses a stored field set. It reports false unless
// the set holds exactly the four entry fields, each non-empty, with a numeric
// expiry.
func WebhookEntryFromFields(baseID string, fields map[string]string) (WebhookEntry, bool) {
	if len(fields) != len(EntryFieldNames) {
		return WebhookEntry{}, false
	}
	for _, name := range EntryFieldNames {
		if v, ok := fields[name]; !ok || v == "" {
			return WebhookEntry{}, false
		}
	}

	expiry, err := strconv.ParseInt(fields[EntryFieldExpiryTimestamp], 10, 64)
	if err != nil {
		return WebhookEntry{}, false
	}

	return WebhookEntry{
		BaseID:          baseID,
		AuthToken:       fields[EntryFieldAuthToken],
		WebhookID:       fields[EntryFieldWebhookID],
		MACSecret:       fields[EntryFieldMACSecret],
		ExpiryTimestamp: expiry,
	}, true
}

// Fields returns the entry in its persisted field form.
func (e WebhookEntry) Fields() map[string]string {
	return map[string]string{
		EntryFieldAuthToken:       e.AuthToken,
		EntryFieldWebhookID:       e.WebhookID,
		EntryFieldMACSecret:       e.MACSecret,
		EntryFieldExpiryTimestamp: strconv.FormatInt(e.ExpiryTimestamp, 10),
	}
}

// Expired reports whether the entry's expiry is at or before now.
func (e WebhookEntry) Expired(now time.Time) bool {
	return e.ExpiryTimestamp <= now.UnixMilli()
}

// ExpiresAt returns the expiry as a time.Time.
func (e WebhookEntry) ExpiresAt() time.Time {
	return time.UnixMilli(e.ExpiryTimestamp)
}
