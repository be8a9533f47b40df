package web

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	vm "github.com/TejAtParkourOps/Airetable/internal/adapter/driving/web/viewmodel"
)

// htmlWriter writes HTML fragments and keeps the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) rawf(format string, args ...any) {
	hw.raw(fmt.Sprintf(format, args...))
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(title)
		hw.raw(`</title><link rel="stylesheet" href="/static/status.css"></head><body><main>`)
		if hw.err != nil {
			return hw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		hw.raw(`</main></body></html>`)
		return hw.err
	})
}

// StatusPage renders the mirror, subscription and sync history overview.
func StatusPage(page vm.StatusPageViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw(`<header><h1>Airetable status</h1><p class="muted">Generated `)
		hw.text(page.GeneratedAt)
		hw.raw(`</p></header>`)
		if page.Error != "" {
			hw.raw(`<p class="error">`)
			hw.text(page.Error)
			hw.raw(`</p>`)
		}

		writeBases(hw, page.Bases)
		writeSubscriptions(hw, page.Subscriptions, page.CSRFToken)
		writeRuns(hw, page.Runs)
		return hw.err
	})
}

func writeBases(hw *htmlWriter, bases []vm.BaseViewModel) {
	hw.raw(`<section id="bases"><h2>Mirrored bases</h2>`)
	if len(bases) == 0 {
		hw.raw(`<p class="muted">No base has been synced yet.</p></section>`)
		return
	}

	for _, b := range bases {
		hw.raw(`<article class="base"><h3>`)
		hw.text(b.Name)
		hw.raw(` <code>`)
		hw.text(b.ID)
		hw.raw(`</code></h3><dl>`)
		writeTerm(hw, "Records", strconv.Itoa(b.RecordCount))
		writeTerm(hw, "Last sync", b.SyncedAt)
		writeTerm(hw, "Sync id", b.SyncID)
		writeTerm(hw, "Last notification", b.LastNotification)
		writeTerm(hw, "Notifications", strconv.Itoa(b.Notifications))
		hw.raw(`</dl>`)

		hw.raw(`<table><thead><tr><th>Table</th><th>Primary field</th><th>Fields</th><th>Records</th><th>Description</th></tr></thead><tbody>`)
		for _, t := range b.Tables {
			hw.raw(`<tr><td>`)
			hw.text(t.Name)
			hw.raw(` <code>`)
			hw.text(t.ID)
			hw.raw(`</code></td><td>`)
			hw.text(t.PrimaryField)
			hw.rawf(`</td><td>%d</td><td>%d</td><td class="description">`, t.FieldCount, t.RecordCount)
			hw.raw(t.DescriptionHTML)
			hw.raw(`</td></tr>`)
		}
		hw.raw(`</tbody></table></article>`)
	}
	hw.raw(`</section>`)
}

func writeSubscriptions(hw *htmlWriter, subs []vm.SubscriptionViewModel, csrf string) {
	hw.raw(`<section id="subscriptions"><h2>Webhook subscriptions</h2>`)
	if len(subs) == 0 {
		hw.raw(`<p class="muted">No stored subscriptions.</p></section>`)
		return
	}

	hw.raw(`<table><thead><tr><th>Base</th><th>Webhook</th><th>Expires</th><th></th></tr></thead><tbody>`)
	for _, s := range subs {
		hw.raw(`<tr`)
		if s.Expired {
			hw.raw(` class="expired"`)
		}
		hw.raw(`><td><code>`)
		hw.text(s.BaseID)
		hw.raw(`</code></td><td><code>`)
		hw.text(s.WebhookID)
		hw.raw(`</code></td><td>`)
		hw.text(s.ExpiresAt)
		if s.Expired {
			hw.raw(` (expired)`)
		}
		hw.raw(`</td><td><form method="post" action="`)
		hw.text(s.UnsubscribePath)
		hw.raw(`"><input type="hidden" name="`)
		hw.raw(csrfFormField)
		hw.raw(`" value="`)
		hw.text(csrf)
		hw.raw(`"><input type="password" name="`)
		hw.raw(authTokenFormField)
		hw.raw(`" placeholder="Airtable token" autocomplete="off" required>`)
		hw.raw(`<button type="submit">Unsubscribe</button></form></td></tr>`)
	}
	hw.raw(`</tbody></table></section>`)
}

func writeRuns(hw *htmlWriter, runs []vm.SyncRunViewModel) {
	hw.raw(`<section id="runs"><h2>Recent syncs</h2>`)
	if len(runs) == 0 {
		hw.raw(`<p class="muted">No sync history.</p></section>`)
		return
	}

	hw.raw(`<table><thead><tr><th>Finished</th><th>Base</th><th>State</th><th>Records</th><th>Duration</th><th>Message</th></tr></thead><tbody>`)
	for _, r := range runs {
		if r.Succeeded {
			hw.raw(`<tr class="ok"><td>`)
		} else {
			hw.raw(`<tr class="failed"><td>`)
		}
		hw.text(r.FinishedAt)
		hw.raw(`</td><td><code>`)
		hw.text(r.BaseID)
		hw.raw(`</code></td><td>`)
		hw.text(r.State)
		hw.rawf(`</td><td>%d</td><td>`, r.RecordCount)
		hw.text(r.Duration)
		hw.raw(`</td><td>`)
		hw.text(r.Message)
		hw.raw(`</td></tr>`)
	}
	hw.raw(`</tbody></table></section>`)
}

func writeTerm(hw *htmlWriter, term, value string) {
	hw.raw(`<dt>`)
	hw.text(term)
	hw.raw(`</dt><dd>`)
	hw.text(value)
	hw.raw(`</dd>`)
}
