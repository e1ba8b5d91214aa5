package templates

import (
	"github.com/a-h/templ"

	"github.com/testudy/rebase/internal/modal"
	"github.com/testudy/rebase/internal/playground"
)

// PlaygroundBase is the route prefix of the playground sessions.
const PlaygroundBase = "/playground/sessions"

// SessionPath returns the URL of session id, with optional action suffix.
func SessionPath(id, action string) string {
	p := PlaygroundBase + "/" + id
	if action != "" {
		p += "/" + action
	}
	return p
}

// PlaygroundLauncher renders the button that starts a new session.
func PlaygroundLauncher(csrfToken string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<div id="playground" class="playground">`)
		w.raw(`<form method="post"`)
		w.attr("action", PlaygroundBase)
		w.attr("hx-post", PlaygroundBase)
		w.raw(` hx-target="#playground" hx-swap="outerHTML">`)
		w.render(csrfField(csrfToken))
		w.raw(`<button type="submit" class="btn btn-primary btn-block">Start playground</button></form></div>`)
	})
}

// Session renders one playground session: state, controls, the live modal
// markup and its event log.
func Session(snap playground.Snapshot, csrfToken string) templ.Component {
	return component(func(w *writer) {
		state := "closed"
		if snap.Open {
			state = "open"
		}
		w.raw(`<div id="playground" class="playground"`)
		w.attr("data-session", snap.ID)
		w.attr("data-state", state)
		w.attr("data-events", SessionPath(snap.ID, "events"))
		w.raw(`><p class="playground-state">Modal is <strong>`)
		w.text(state)
		w.raw(`</strong></p><div class="playground-controls">`)
		w.render(actionForm(snap.ID, "open", "Open", csrfToken, snap.Open))
		w.render(actionForm(snap.ID, "close", "Close", csrfToken, !snap.Open))
		for _, name := range modal.Events {
			if name.Cancelable() {
				w.render(vetoForm(snap, name, csrfToken))
			}
		}
		w.render(actionForm(snap.ID, "destroy", "Destroy", csrfToken, false))
		w.raw(`</div><div class="playground-preview">`)
		w.render(templ.Raw(snap.Markup))
		w.raw(`</div>`)
		w.render(EventLog(snap.History))
		w.raw(`</div>`)
	})
}

// EventLog renders the recorded lifecycle events, oldest first.
func EventLog(history []playground.Record) templ.Component {
	return component(func(w *writer) {
		w.raw(`<ol id="playground-log" class="playground-log">`)
		for _, rec := range history {
			w.render(EventRow(rec))
		}
		w.raw(`</ol>`)
	})
}

// EventRow renders one record.
func EventRow(rec playground.Record) templ.Component {
	return component(func(w *writer) {
		w.raw(`<li class="playground-event`)
		if rec.Cancelled {
			w.raw(` cancelled`)
		}
		w.raw(`"`)
		w.attr("data-event", rec.Event)
		w.raw(`><time`)
		w.attr("datetime", rec.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
		w.raw(`>`)
		w.text(rec.At.Format("15:04:05.000"))
		w.raw(`</time> <span class="badge`)
		if rec.Cancelled {
			w.raw(` badge-negative`)
		}
		w.raw(`">`)
		w.text(rec.Event)
		w.raw(`</span>`)
		if rec.Cancelled {
			w.raw(` prevented`)
		}
		w.raw(`</li>`)
	})
}

func actionForm(id, action, label, csrfToken string, disabled bool) templ.Component {
	return component(func(w *writer) {
		target := SessionPath(id, action)
		w.raw(`<form method="post" class="playground-action"`)
		w.attr("action", target)
		w.attr("hx-post", target)
		w.raw(` hx-target="#playground" hx-swap="outerHTML">`)
		w.render(csrfField(csrfToken))
		w.raw(`<button type="submit" class="btn"`)
		w.attr("name", "action")
		w.attr("value", action)
		if disabled {
			w.raw(` disabled`)
		}
		w.raw(`>`)
		w.text(label)
		w.raw(`</button></form>`)
	})
}

func vetoForm(snap playground.Snapshot, event modal.EventName, csrfToken string) templ.Component {
	return component(func(w *writer) {
		target := SessionPath(snap.ID, "veto")
		on := snap.Vetoed(string(event))
		next := "true"
		label := "Veto " + string(event)
		if on {
			next = "false"
			label = "Allow " + string(event)
		}
		w.raw(`<form method="post" class="playground-veto"`)
		w.attr("action", target)
		w.attr("hx-post", target)
		w.raw(` hx-target="#playground" hx-swap="outerHTML">`)
		w.render(csrfField(csrfToken))
		w.raw(`<input type="hidden" name="event"`)
		w.attr("value", string(event))
		w.raw(`><input type="hidden" name="on"`)
		w.attr("value", next)
		w.raw(`><button type="submit" class="btn`)
		if on {
			w.raw(` btn-negative`)
		}
		w.raw(`">`)
		w.text(label)
		w.raw(`</button></form>`)
	})
}

// CSRFFieldName is the form field carrying the CSRF token.
const CSRFFieldName = "csrf_token"

func csrfField(token string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<input type="hidden"`)
		w.attr("name", CSRFFieldName)
		w.attr("value", token)
		w.raw(`>`)
	})
}
