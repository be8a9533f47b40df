package airtable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
)

// errRepeatedOffset aborts a listing whose upstream keeps handing back the
// same continuation token.
var errRepeatedOffset = errors.New("upstream repeated pagination offset")

// page is a single response of an offset-paginated listing.
type page interface {
	nextOffset() string
	clearOffset()
}

// fetchAll GETs path until a response carries no offset, carrying each
// response's offset into the next request. The first response seeds the
// accumulator and merge folds every later one into it. Any failure aborts
// the whole listing; the returned accumulator never carries an offset.
func fetchAll[P any, PP interface {
	*P
	page
}](ctx context.Context, c *Client, op, authToken, path string, params url.Values, merge func(acc, next PP)) (PP, error) {
	query := maps.Clone(params)
	if query == nil {
		query = url.Values{}
	}

	var acc PP
	prevOffset := ""

	for n := 1; ; n++ {
		next := PP(new(P))
		if err := c.do(ctx, op, authToken, http.MethodGet, path, query, nil, next); err != nil {
			return nil, err
		}

		if acc == nil {
			acc = next
		} else {
			merge(acc, next)
		}

		offset := next.nextOffset()
		slog.Debug("airtable page accumulated", "op", op, "page", n, "more", offset != "")

		if offset == "" {
			break
		}
		if offset == prevOffset {
			return nil, fmt.Errorf("%s (page %d): %w", op, n, errRepeatedOffset)
		}
		prevOffset = offset
		query.Set("offset", offset)
	}

	acc.clearOffset()
	return acc, nil
}
