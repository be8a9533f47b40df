// Package dto holds the JSON shapes shared by the REST and RPC adapters: the
// response envelope and the mirrored resource tree.
package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// Envelope wraps every REST and RPC response. ID echoes the RPC request id
// and is omitted on REST.
type Envelope[T any] struct {
	ID                       string `json:"id,omitempty"`
	IsSuccess                bool   `json:"isSuccess"`
	StatusCode               int    `json:"statusCode"`
	StatusText               string `json:"statusText"`
	DeveloperFriendlyMessage string `json:"developerFriendlyMessage,omitempty"`
	UserFriendlyMessage      string `json:"userFriendlyMessage"`
	Data                     T      `json:"data"`
}

var statusTexts = map[int]string{
	http.StatusOK:                  "Okay",
	http.StatusCreated:             "Created",
	http.StatusBadRequest:          "Bad Request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusNotFound:            "Not Found",
	http.StatusRequestTimeout:      "Request Timeout",
	http.StatusInternalServerError: "Internal Server Error",
	http.StatusNotImplemented:      "Not Implemented",
}

// StatusText returns the envelope status text for code.
func StatusText(code int) string {
	if text, ok := statusTexts[code]; ok {
		return text
	}
	return http.StatusText(code)
}

// Success builds a successful envelope carrying data.
func Success[T any](code int, message string, data T) Envelope[T] {
	return Envelope[T]{
		IsSuccess:           true,
		StatusCode:          code,
		StatusText:          StatusText(code),
		UserFriendlyMessage: message,
		Data:                data,
	}
}

// Failure builds an error envelope with no data.
func Failure(code int, message, developerMessage string) Envelope[any] {
	return Envelope[any]{
		StatusCode:               code,
		StatusText:               StatusText(code),
		DeveloperFriendlyMessage: developerMessage,
		UserFriendlyMessage:      message,
	}
}

// FromError maps a classified error to its envelope. Unclassified errors are
// reported as a masked internal error.
func FromError(err error) Envelope[any] {
	var classified *model.Error
	if !errors.As(err, &classified) {
		return Failure(http.StatusInternalServerError, "Something went wrong.", "")
	}

	code := StatusForKind(classified.Kind)
	if errors.Is(err, context.DeadlineExceeded) {
		code = http.StatusRequestTimeout
	}
	return Failure(code, classified.PublicMessage(), "error kind: "+string(classified.Kind))
}

// StatusForKind returns the HTTP status reported for an error kind.
func StatusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
