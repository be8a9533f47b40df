// Package httphandler is the REST driving adapter: sync and mirror
// endpoints, subscription management and the Airtable notification
// receiver.
package httphandler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/dto"
	"github.com/TejAtParkourOps/Airetable/internal/application"
	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// NotificationPath is where Airtable delivers webhook notifications.
const NotificationPath = "/rcv-airtable-webhook-notification"

const (
	maxNotificationBytes = 1 << 20
	defaultRunsLimit     = 20
	maxRunsLimit         = 100
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	syncSvc       *application.SyncService
	webhooks      *application.WebhookManager
	notifications *application.NotificationService
	mirror        *application.MirrorCache
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	syncSvc *application.SyncService,
	webhooks *application.WebhookManager,
	notifications *application.NotificationService,
	mirror *application.MirrorCache,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		syncSvc:       syncSvc,
		webhooks:      webhooks,
		notifications: notifications,
		mirror:        mirror,
		logger:        logger,
	}
}

// RegisterAPIRoutes registers the REST and notification routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Health)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("POST /api/v1/bases/{baseId}/sync", h.SyncBase)
	mux.HandleFunc("GET /api/v1/bases/{baseId}/webhooks", h.ListWebhooks)
	mux.HandleFunc("DELETE /api/v1/bases/{baseId}/subscription", h.Unsubscribe)
	mux.HandleFunc("GET /api/v1/subscriptions", h.ListSubscriptions)
	mux.HandleFunc("GET /api/v1/mirror/{address}", h.GetMirror)
	mux.HandleFunc("GET /api/v1/syncs", h.ListSyncs)
	mux.HandleFunc("POST "+NotificationPath, h.ReceiveNotification)
}

// Health reports that the service is up.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, dto.Success(http.StatusOK, "Airetable is running.", HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}))
}

// SyncBase mirrors the base named in the path using the caller's bearer
// token and returns the built tree.
func (h *Handler) SyncBase(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "An Airtable authorization token is required.", "missing bearer token")
		return
	}
	baseID := r.PathValue("baseId")

	base, err := h.syncSvc.SyncBase(r.Context(), token, baseID)
	if err != nil {
		h.logger.Warn("sync failed", "base_id", baseID, "error", err, "request_id", RequestID(r.Context()))
		writeEnvelope(w, dto.FromError(err))
		return
	}

	writeEnvelope(w, dto.Success(http.StatusOK, application.MsgBaseFound, dto.FromBase(*base)))
}

// ListWebhooks lists the webhooks registered upstream for a base.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "An Airtable authorization token is required.", "missing bearer token")
		return
	}

	hooks, err := h.webhooks.ListUpstream(r.Context(), token, r.PathValue("baseId"))
	if err != nil {
		h.logger.Warn("list webhooks failed", "base_id", r.PathValue("baseId"), "error", err)
		writeEnvelope(w, dto.FromError(err))
		return
	}

	writeEnvelope(w, dto.Success(http.StatusOK, "Webhooks found.", dto.FromWebhooks(hooks)))
}

// Unsubscribe deletes the base's webhook upstream and its local entry. The
// bearer token must be the one the subscription was created with.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "An Airtable authorization token is required.", "missing bearer token")
		return
	}
	baseID := r.PathValue("baseId")

	removed, err := h.webhooks.Unsubscribe(r.Context(), token, baseID)
	if err != nil {
		h.logger.Warn("unsubscribe failed", "base_id", baseID, "error", err, "request_id", RequestID(r.Context()))
		writeEnvelope(w, dto.FromError(err))
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "Base '"+baseID+"' has no subscription.", "")
		return
	}

	writeEnvelope(w, dto.Success(http.StatusOK, "Subscription removed.", UnsubscribeResponse{
		BaseID:  baseID,
		Removed: true,
	}))
}

// ListSubscriptions lists the stored webhook entries without secrets.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.webhooks.Subscriptions(r.Context())
	if err != nil {
		h.logger.Error("failed to list subscriptions", "error", err)
		writeEnvelope(w, dto.FromError(err))
		return
	}

	writeEnvelope(w, dto.Success(http.StatusOK, "Subscriptions found.", toSubscriptionResponses(subs)))
}

// GetMirror returns the mirrored base, table or record named by a resource
// address such as "appX->tblY->recZ".
func (h *Handler) GetMirror(w http.ResponseWriter, r *http.Request) {
	addr, err := model.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resource address.", err.Error())
		return
	}

	res, err := h.mirror.Resolve(addr)
	if err != nil {
		writeEnvelope(w, dto.FromError(err))
		return
	}

	switch addr.Kind {
	case model.AddressKindRecord:
		writeEnvelope(w, dto.Success(http.StatusOK, "Airtable Record found!", dto.FromRecord(res.Record)))
	case model.AddressKindTable:
		writeEnvelope(w, dto.Success(http.StatusOK, "Airtable Table found!", dto.FromTable(res.Table)))
	default:
		writeEnvelope(w, dto.Success(http.StatusOK, application.MsgBaseFound, dto.FromBase(res.Base)))
	}
}

// ListSyncs returns the most recent sync runs, optionally for one base.
// Query parameters: baseId, limit (default 20, max 100).
func (h *Handler) ListSyncs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer.", "")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.syncSvc.RecentRuns(r.Context(), r.URL.Query().Get("baseId"), limit)
	if err != nil {
		h.logger.Error("failed to list sync runs", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load sync history.", "")
		return
	}

	writeEnvelope(w, dto.Success(http.StatusOK, "Sync history found.", dto.FromSyncRuns(runs)))
}

// ReceiveNotification accepts an Airtable webhook notification. The
// response is always an empty 200; verification outcomes are only logged.
func (h *Handler) ReceiveNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
	if err != nil {
		h.logger.Warn("failed to read notification body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	res := h.notifications.Handle(r.Context(), body, r.Header.Get(application.MACHeader))
	h.logger.Debug("notification handled",
		"outcome", res.Outcome,
		"reason", res.Reason,
		"request_id", RequestID(r.Context()),
	)
	w.WriteHeader(http.StatusOK)
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
