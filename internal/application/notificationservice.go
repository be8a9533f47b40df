package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// notificationSchema describes the body upstream posts for every change.
const notificationSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["base", "webhook", "timestamp"],
	"properties": {
		"base": {
			"type": "object",
			"required": ["id"],
			"properties": {"id": {"type": "string", "minLength": 1}}
		},
		"webhook": {
			"type": "object",
			"required": ["id"],
			"properties": {"id": {"type": "string", "minLength": 1}}
		},
		"timestamp": {"type": "string", "minLength": 1}
	}
}`

const notificationSchemaURL = "https://airetable.invalid/notification.schema.json"

// NotificationOutcome is what happened to one inbound notification.
type NotificationOutcome string

const (
	NotificationAccepted NotificationOutcome = "accepted"
	NotificationIgnored  NotificationOutcome = "ignored"
)

// Reasons a notification is ignored.
const (
	ReasonMissingSignature = "missing signature"
	ReasonInvalidPayload   = "invalid payload"
	ReasonNoEntry          = "no webhook entry"
	ReasonWebhookMismatch  = "webhook mismatch"
	ReasonBadSignature     = "bad signature"
	ReasonStoreUnavailable = "store unavailable"
)

// NotificationResult reports the outcome of Handle. Notification is only
// populated once the body has been decoded.
type NotificationResult struct {
	Outcome      NotificationOutcome
	Reason       string
	Notification model.Notification
}

type notificationBody struct {
	Base struct {
		ID string `json:"id"`
	} `json:"base"`
	Webhook struct {
		ID string `json:"id"`
	} `json:"webhook"`
	Timestamp string `json:"timestamp"`
}

// NotificationService authenticates inbound webhook notifications and hands
// verified ones to the processor.
type NotificationService struct {
	webhooks *WebhookManager
	mirror   *MirrorCache
	schema   *jsonschema.Schema
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(webhooks *WebhookManager, mirror *MirrorCache) (*NotificationService, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(notificationSchema))
	if err != nil {
		return nil, fmt.Errorf("parse notification schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(notificationSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add notification schema: %w", err)
	}
	schema, err := compiler.Compile(notificationSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile notification schema: %w", err)
	}

	return &NotificationService{webhooks: webhooks, mirror: mirror, schema: schema}, nil
}

// Handle verifies one delivery. body must be the exact bytes received and
// signature the raw MACHeader value. Handle never fails: anything that
// cannot be verified is ignored with a reason.
func (s *NotificationService) Handle(ctx context.Context, body []byte, signature string) NotificationResult {
	if signature == "" {
		return s.ignore(NotificationResult{}, ReasonMissingSignature, nil)
	}

	n, err := s.decode(body)
	if err != nil {
		return s.ignore(NotificationResult{}, ReasonInvalidPayload, err)
	}
	res := NotificationResult{Notification: n}

	entry, err := s.webhooks.Find(ctx, n.BaseID)
	if err != nil {
		return s.ignore(res, ReasonStoreUnavailable, err)
	}
	if entry == nil {
		return s.ignore(res, ReasonNoEntry, nil)
	}
	if entry.WebhookID != n.WebhookID {
		return s.ignore(res, ReasonWebhookMismatch, nil)
	}
	if !Verify(body, signature, *entry) {
		return s.ignore(res, ReasonBadSignature, nil)
	}

	res.Outcome = NotificationAccepted
	s.process(n)
	return res
}

func (s *NotificationService) decode(body []byte) (model.Notification, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return model.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if err := s.schema.Validate(inst); err != nil {
		return model.Notification{}, fmt.Errorf("validate notification: %w", err)
	}

	var raw notificationBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return model.Notification{}, fmt.Errorf("parse notification timestamp: %w", err)
	}

	return model.Notification{BaseID: raw.Base.ID, WebhookID: raw.Webhook.ID, Timestamp: ts}, nil
}

func (s *NotificationService) ignore(res NotificationResult, reason string, err error) NotificationResult {
	res.Outcome = NotificationIgnored
	res.Reason = reason

	attrs := []any{"reason", reason, "base_id", res.Notification.BaseID, "webhook_id", res.Notification.WebhookID}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	slog.Warn("notification ignored", attrs...)
	return res
}

// process is the hook for applying a verified change. Payloads are not
// fetched or diffed into the tree; the next sync picks the change up.
func (s *NotificationService) process(n model.Notification) {
	mirrored := s.mirror.RecordNotification(n.BaseID, n.Timestamp)
	slog.Info("notification accepted",
		"base_id", n.BaseID,
		"webhook_id", n.WebhookID,
		"timestamp", n.Timestamp,
		"mirrored", mirrored,
	)
}
