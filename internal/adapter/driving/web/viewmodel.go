package web

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	vm "github.com/TejAtParkourOps/Airetable/internal/adapter/driving/web/viewmodel"
	"github.com/TejAtParkourOps/Airetable/internal/application"
	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(timeLayout)
}

// formatAgo renders t relative to now, e.g. "3 minutes ago (2026-...)".
func formatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t) + " (" + formatTime(t) + ")"
}

// toBaseViewModel converts a mirror entry. Tables are ordered by name.
func toBaseViewModel(entry application.MirrorEntry) vm.BaseViewModel {
	tables := make([]vm.TableViewModel, 0, len(entry.Base.Tables))
	for _, t := range entry.Base.Tables {
		tables = append(tables, toTableViewModel(t))
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Name != tables[j].Name {
			return tables[i].Name < tables[j].Name
		}
		return tables[i].ID < tables[j].ID
	})

	return vm.BaseViewModel{
		ID:               entry.Base.ID,
		Name:             entry.Base.Name,
		SyncID:           entry.SyncID,
		SyncedAt:         formatAgo(entry.SyncedAt),
		LastNotification: formatAgo(entry.LastNotificationAt),
		Notifications:    entry.Notifications,
		RecordCount:      entry.Base.RecordCount(),
		Tables:           tables,
	}
}

func toTableViewModel(t model.Table) vm.TableViewModel {
	var primary string
	if f, ok := t.PrimaryField(); ok {
		primary = f.Name
	}

	return vm.TableViewModel{
		ID:              t.ID,
		Name:            t.Name,
		PrimaryField:    primary,
		FieldCount:      len(t.Fields),
		RecordCount:     len(t.Records),
		DescriptionHTML: RenderMarkdown(t.Description),
	}
}

func toSubscriptionViewModel(s application.Subscription) vm.SubscriptionViewModel {
	return vm.SubscriptionViewModel{
		BaseID:          s.BaseID,
		WebhookID:       s.WebhookID,
		ExpiresAt:       formatTime(s.ExpiresAt),
		Expired:         s.Expired,
		UnsubscribePath: "/status/bases/" + s.BaseID + "/unsubscribe",
	}
}

func toSyncRunViewModel(r model.SyncRun) vm.SyncRunViewModel {
	return vm.SyncRunViewModel{
		SyncID:      r.SyncID,
		BaseID:      r.BaseID,
		State:       string(r.State),
		Succeeded:   r.Succeeded(),
		Message:     r.Message,
		RecordCount: r.RecordCount,
		FinishedAt:  formatAgo(r.FinishedAt),
		Duration:    r.Duration().Round(time.Millisecond).String(),
	}
}
