// Package httpapi exposes the small read-only REST surface next to the
// websocket endpoint: a room directory for lobby browsers that have not
// connected yet, and a health probe.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"betteruno/internal/room"
)

// Handler serves the REST routes.
type Handler struct {
	log      *logrus.Logger
	registry *room.Registry
}

// New wires the handler to the room registry.
func New(log *logrus.Logger, registry *room.Registry) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{log: log, registry: registry}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms", h.listRooms)
	mux.HandleFunc("GET /api/health", h.health)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": h.registry.List(),
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Warn("write json response")
	}
}
