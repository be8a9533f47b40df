package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// Caller-facing messages. Upstream bodies never reach the caller.
const (
	MsgBaseFound        = "Airtable Base found!"
	msgUpstreamMasked   = "Something went wrong while trying to fetch Airtable Base."
	msgUnauthorized     = "Your Airtable authorization token does not have access to the requested Airtable Base."
	msgResourceNotFound = "Could not find Airtable resource!"
	msgTransport        = "Could not reach Airtable."
	msgStore            = "Could not access the webhook store."
	msgTokenRequired    = "An Airtable authorization token is required."
	msgTokenMismatch    = "Your Airtable authorization token does not own the subscription of this Airtable Base."
)

// classify maps any failure of a sync step onto the error taxonomy. Errors
// that are already classified pass through unchanged.
func classify(err error) *model.Error {
	var classified *model.Error
	if errors.As(err, &classified) {
		return classified
	}

	var statusErr *driven.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusBadRequest:
			return model.NewUpstreamError(msgUpstreamMasked, err)
		case http.StatusUnauthorized:
			return model.NewUnauthorizedError(msgUnauthorized, err)
		case http.StatusNotFound:
			return &model.Error{Kind: model.ErrorKindNotFound, Message: msgResourceNotFound, Err: err}
		default:
			return model.NewUpstreamError(msgUpstreamMasked, err)
		}
	}

	var transportErr *driven.TransportError
	if errors.As(err, &transportErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return model.NewTransportError(msgTransport, err)
	}

	return model.NewUpstreamError(msgUpstreamMasked, err)
}
