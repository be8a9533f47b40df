package model

import "time"

// Notification is the decoded body of an inbound webhook delivery. The raw
// bytes are kept separately by the caller for signature verification.
type Notification struct {
	BaseID    string
	WebhookID string
	Timestamp time.Time
}
