// Package web implements the HTML status page driving adapter using templ
// components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	vm "github.com/TejAtParkourOps/Airetable/internal/adapter/driving/web/viewmodel"
	"github.com/TejAtParkourOps/Airetable/internal/application"
	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

const (
	recentRunsOnPage   = 25
	authTokenFormField = "auth_token"
)

// Handler is the web driving adapter that serves the status page.
type Handler struct {
	mirror   *application.MirrorCache
	webhooks *application.WebhookManager
	syncSvc  *application.SyncService
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	mirror *application.MirrorCache,
	webhooks *application.WebhookManager,
	syncSvc *application.SyncService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		mirror:   mirror,
		webhooks: webhooks,
		syncSvc:  syncSvc,
		logger:   logger,
	}
}

// Status renders the mirrored bases, stored subscriptions and recent syncs.
// Subscription or history failures degrade the page instead of failing it.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	page := vm.StatusPageViewModel{
		GeneratedAt: formatTime(time.Now()),
		CSRFToken:   csrfToken(w, r),
	}

	for _, entry := range h.mirror.List() {
		page.Bases = append(page.Bases, toBaseViewModel(entry))
	}

	subs, err := h.webhooks.Subscriptions(r.Context())
	if err != nil {
		h.logger.Error("failed to list subscriptions", "error", err)
		page.Error = "Subscriptions could not be loaded."
	}
	for _, s := range subs {
		page.Subscriptions = append(page.Subscriptions, toSubscriptionViewModel(s))
	}

	runs, err := h.syncSvc.RecentRuns(r.Context(), "", recentRunsOnPage)
	if err != nil {
		h.logger.Error("failed to list sync runs", "error", err)
		page.Error = "Sync history could not be loaded."
	}
	for _, run := range runs {
		page.Runs = append(page.Runs, toSyncRunViewModel(run))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Layout("Airetable status", StatusPage(page)).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render status page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Unsubscribe handles the status page's unsubscribe form and redirects back
// to the page. The form must carry the Airtable token the subscription was
// created with.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	baseID := r.PathValue("baseId")
	_, err := h.webhooks.Unsubscribe(r.Context(), r.PostFormValue(authTokenFormField), baseID)
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		h.logger.Warn("unsubscribe from status page rejected", "base_id", baseID)
		http.Error(w, "authorization token does not own this subscription", http.StatusUnauthorized)
		return
	case err != nil:
		h.logger.Error("unsubscribe from status page failed", "base_id", baseID, "error", err)
		http.Error(w, "could not remove subscription", http.StatusBadGateway)
		return
	}

	h.logger.Info("subscription removed from status page", "base_id", baseID)
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}
