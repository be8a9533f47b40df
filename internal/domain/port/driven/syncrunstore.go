package driven

import (
	"context"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// SyncRunStore defines the driven port for the sync history.
type SyncRunStore interface {
	Record(ctx context.Context, run model.SyncRun) error
	// ListRecent returns up to limit runs, newest first. An empty baseID
	// lists runs of every base.
	ListRecent(ctx context.Context, baseID string, limit int) ([]model.SyncRun, error)
}
