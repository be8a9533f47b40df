package sqlite

import (
	"fmt"
	"time"
)

// timeNow is replaced in tests that need deterministic timestamps.
var timeNow = time.Now

// storedTimeLayout is fixed width so stored values sort chronologically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime renders t the way every repository in this package stores it.
func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// parseTime accepts both our own RFC 3339 values and SQLite's
// CURRENT_TIMESTAMP layout.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
