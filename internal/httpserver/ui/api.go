package ui

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/icons"
	"github.com/testudy/rebase/internal/requestctx"
)

type iconsResponse struct {
	Icons []icons.Icon `json:"icons"`
	Count int          `json:"count"`
}

// IconsAPIHandler lists the icons as JSON.
func (h *Handlers) IconsAPIHandler(w http.ResponseWriter, r *http.Request) {
	list, err := icons.List(h.iconsFS, h.iconsDir)
	if err != nil {
		requestctx.Logger(r.Context()).Error("list icons failed", zap.Error(err))
		writeJSONError(w, r, "icons_unavailable", "icons could not be listed", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []icons.Icon{}
	}
	writeJSON(w, http.StatusOK, iconsResponse{Icons: list, Count: len(list)})
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeJSONError writes the canonical error envelope.
func writeJSONError(w http.ResponseWriter, r *http.Request, code, message string, status int) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := map[string]any{
		"error":   sanitize(code, 80),
		"message": sanitize(message, 512),
		"status":  status,
	}
	if id := sanitize(middleware.GetReqID(r.Context()), 80); id != "" {
		payload["request_id"] = id
	}
	writeJSON(w, status, payload)
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
