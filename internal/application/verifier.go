package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// MACHeader carries the signature of an inbound notification.
const MACHeader = "X-Airtable-Content-MAC"

const macPrefix = "hmac-sha256="

// Signature computes the header value upstream sends for body: the
// HMAC-SHA256 of the exact bytes, keyed by the base64-decoded secret, as
// "hmac-sha256=<lowercase hex>".
func Signature(body []byte, macSecretBase64 string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(macSecretBase64)
	if err != nil {
		return "", fmt.Errorf("decode mac secret: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return macPrefix + hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether header is the signature of body under the entry's
// secret. The comparison is constant time and byte exact, so a re-encoded
// body or a differently cased digest never verifies.
func Verify(body []byte, header string, entry model.WebhookEntry) bool {
	if header == "" {
		return false
	}

	expected, err := Signature(body, entry.MACSecret)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(header))
}
