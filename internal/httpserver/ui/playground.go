package ui

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/httpserver/middleware"
	"github.com/testudy/rebase/internal/modal"
	"github.com/testudy/rebase/internal/playground"
	"github.com/testudy/rebase/internal/requestctx"
	"github.com/testudy/rebase/internal/templates"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type sessionResponse struct {
	ID        string              `json:"id"`
	Open      bool                `json:"open"`
	Changed   *bool               `json:"changed,omitempty"`
	Classes   []string            `json:"classes"`
	Vetoes    []string            `json:"vetoes"`
	History   []playground.Record `json:"history"`
	CreatedAt time.Time           `json:"created_at"`
}

func newSessionResponse(snap playground.Snapshot) sessionResponse {
	resp := sessionResponse{
		ID:        snap.ID,
		Open:      snap.Open,
		Classes:   snap.Classes,
		Vetoes:    snap.Vetoes,
		History:   snap.History,
		CreatedAt: snap.CreatedAt,
	}
	if resp.Classes == nil {
		resp.Classes = []string{}
	}
	if resp.Vetoes == nil {
		resp.Vetoes = []string{}
	}
	if resp.History == nil {
		resp.History = []playground.Record{}
	}
	return resp
}

// CreateSessionHandler starts a playground session.
func (h *Handlers) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.playground.Create(r.Context())
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusCreated, snap, nil)
}

// SessionHandler shows one session.
func (h *Handlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.playground.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, snap, nil)
}

// OpenSessionHandler opens the session's modal.
func (h *Handlers) OpenSessionHandler(w http.ResponseWriter, r *http.Request) {
	changed, snap, err := h.playground.Open(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, snap, &changed)
}

// CloseSessionHandler closes the session's modal.
func (h *Handlers) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	changed, snap, err := h.playground.Close(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, snap, &changed)
}

// VetoSessionHandler toggles the veto on a cancelable event. The form
// carries event (open or close) and on (a boolean).
func (h *Handlers) VetoSessionHandler(w http.ResponseWriter, r *http.Request) {
	on, err := strconv.ParseBool(r.PostFormValue("on"))
	if err != nil {
		h.playgroundError(w, r, errBadVeto)
		return
	}
	event := modal.EventName(r.PostFormValue("event"))
	snap, err := h.playground.SetVeto(chi.URLParam(r, "sessionID"), event, on)
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, snap, nil)
}

// DestroySessionHandler ends the session.
func (h *Handlers) DestroySessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.playground.Destroy(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.playgroundError(w, r, err)
		return
	}
	switch {
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	case middleware.IsHTMXRequest(r.Context()):
		h.write(w, r, http.StatusOK, templates.PlaygroundLauncher(middleware.CSRFTokenFromContext(r.Context())))
	default:
		http.Redirect(w, r, "/"+h.playgroundPage, http.StatusSeeOther)
	}
}

// SessionEventsHandler streams the session's records over a websocket as
// JSON messages until the session ends or the client disconnects.
func (h *Handlers) SessionEventsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	records, cancel, err := h.playground.Subscribe(id)
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	defer cancel()

	logger := requestctx.Logger(r.Context()).With(zap.String("session", id))
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("playground websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The read loop only observes control frames and client close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("playground websocket read", zap.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			return
		case rec, ok := <-records:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := conn.WriteJSON(rec); err != nil {
				logger.Debug("playground websocket write", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) respondSession(w http.ResponseWriter, r *http.Request, status int, snap playground.Snapshot, changed *bool) {
	ctx := r.Context()
	switch {
	case wantsJSON(r):
		resp := newSessionResponse(snap)
		resp.Changed = changed
		writeJSON(w, status, resp)
	case middleware.IsHTMXRequest(ctx):
		h.write(w, r, status, templates.Session(snap, middleware.CSRFTokenFromContext(ctx)))
	case r.Method == http.MethodGet:
		h.render(w, r, status, "Playground-"+h.catalog.Site(), "/"+h.playgroundPage,
			templates.Session(snap, middleware.CSRFTokenFromContext(ctx)))
	default:
		http.Redirect(w, r, templates.SessionPath(snap.ID, ""), http.StatusSeeOther)
	}
}

var errBadVeto = errors.New("veto requires a boolean on field")

func (h *Handlers) playgroundError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, playground.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, playground.ErrTooManySessions):
		status, code = http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, playground.ErrNotVetoable), errors.Is(err, modal.ErrUnknownEvent), errors.Is(err, errBadVeto):
		status, code = http.StatusBadRequest, "invalid_veto"
	default:
		status, code = http.StatusInternalServerError, "playground_failed"
	}
	if wantsJSON(r) {
		if status >= http.StatusInternalServerError {
			requestctx.Logger(r.Context()).Error("playground request failed", zap.Error(err))
		}
		writeJSONError(w, r, code, err.Error(), status)
		return
	}
	h.renderError(w, r, status, err)
}

// SessionLogHandler renders only the event log fragment.
func (h *Handlers) SessionLogHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.playground.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.playgroundError(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, templates.EventLog(snap.History))
}
