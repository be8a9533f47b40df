package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WebhookEntryStore = (*WebhookEntryRepo)(nil)

// sealedFields are encrypted at rest when the repo has a key.
var sealedFields = map[string]bool{
	model.EntryFieldAuthToken: true,
	model.EntryFieldMACSecret: true,
}

// WebhookEntryRepo is the SQLite implementation of the WebhookEntryStore port
// interface. Each base id owns a set of (field, value) rows.
type WebhookEntryRepo struct {
	db  *DB
	box *secretBox // nil stores every value in plaintext
}

// NewWebhookEntryRepo creates a new WebhookEntryRepo backed by the given DB
// that stores values in plaintext.
func NewWebhookEntryRepo(db *DB) *WebhookEntryRepo {
	return &WebhookEntryRepo{db: db}
}

// NewEncryptedWebhookEntryRepo creates a WebhookEntryRepo that encrypts the
// auth token and MAC secret with AES-256-GCM. key must be 32 bytes.
func NewEncryptedWebhookEntryRepo(db *DB, key []byte) (*WebhookEntryRepo, error) {
	box, err := newSecretBox(key)
	if err != nil {
		return nil, err
	}
	return &WebhookEntryRepo{db: db, box: box}, nil
}

func (r *WebhookEntryRepo) encode(field, value string) (string, error) {
	if r.box == nil || !sealedFields[field] {
		return value, nil
	}
	return r.box.seal(value)
}

func (r *WebhookEntryRepo) decode(value string) (string, error) {
	if r.box == nil {
		if strings.HasPrefix(value, sealedPrefix) {
			return "", ErrSecretKeyRequired
		}
		return value, nil
	}
	return r.box.open(value)
}

// GetFields returns every stored field for baseID, or an empty map.
func (r *WebhookEntryRepo) GetFields(ctx context.Context, baseID string) (map[string]string, error) {
	const query = `SELECT field, value FROM webhook_entry_fields WHERE base_id = ?`
	rows, err := r.db.Reader.QueryContext(ctx, query, baseID)
	if err != nil {
		return nil, fmt.Errorf("get webhook entry %q: %w", baseID, err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan webhook entry field: %w", err)
		}
		if fields[field], err = r.decode(value); err != nil {
			return nil, fmt.Errorf("decode webhook entry %q field %q: %w", baseID, field, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook entry %q: %w", baseID, err)
	}
	return fields, nil
}

// SetFields upserts every given field for baseID in one transaction.
func (r *WebhookEntryRepo) SetFields(ctx context.Context, baseID string, fields map[string]string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set webhook entry %q: %w", baseID, err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO webhook_entry_fields (base_id, field, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(base_id, field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare set webhook entry %q: %w", baseID, err)
	}
	defer stmt.Close()

	now := formatTime(timeNow())
	for field, value := range fields {
		stored, err := r.encode(field, value)
		if err != nil {
			return fmt.Errorf("encode webhook entry %q field %q: %w", baseID, field, err)
		}
		if _, err := stmt.ExecContext(ctx, baseID, field, stored, now); err != nil {
			return fmt.Errorf("set webhook entry %q field %q: %w", baseID, field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit webhook entry %q: %w", baseID, err)
	}
	return nil
}

// DeleteFields removes the named fields for baseID.
func (r *WebhookEntryRepo) DeleteFields(ctx context.Context, baseID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := `DELETE FROM webhook_entry_fields WHERE base_id = ? AND field IN (` + placeholders + `)`

	args := make([]any, 0, len(keys)+1)
	args = append(args, baseID)
	for _, k := range keys {
		args = append(args, k)
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete webhook entry %q: %w", baseID, err)
	}
	return nil
}

// ListBaseIDs returns every base id with at least one stored field, sorted.
func (r *WebhookEntryRepo) ListBaseIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT base_id FROM webhook_entry_fields ORDER BY base_id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list webhook entry bases: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan webhook entry base: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook entry bases: %w", err)
	}
	return ids, nil
}
