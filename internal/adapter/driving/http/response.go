package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/dto"
	"github.com/TejAtParkourOps/Airetable/internal/application"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"isSuccess":false,"statusCode":500,"statusText":"Internal Server Error","userFriendlyMessage":"Something went wrong.","data":null}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeEnvelope writes env with its own status code.
func writeEnvelope[T any](w http.ResponseWriter, env dto.Envelope[T]) {
	writeJSON(w, env.StatusCode, env)
}

// writeError writes a failure envelope with the given status code and message.
func writeError(w http.ResponseWriter, status int, message, developerMessage string) {
	writeEnvelope(w, dto.Failure(status, message, developerMessage))
}

// HealthResponse is the data of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// UnsubscribeResponse is the data of the unsubscribe endpoint.
type UnsubscribeResponse struct {
	BaseID  string `json:"baseId"`
	Removed bool   `json:"removed"`
}

// SubscriptionResponse is the non-secret view of a stored webhook entry.
type SubscriptionResponse struct {
	BaseID    string `json:"baseId"`
	WebhookID string `json:"webhookId"`
	ExpiresAt string `json:"expiresAt"`
	Expired   bool   `json:"expired"`
}

func toSubscriptionResponses(subs []application.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, SubscriptionResponse{
			BaseID:    s.BaseID,
			WebhookID: s.WebhookID,
			ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
			Expired:   s.Expired,
		})
	}
	return out
}
