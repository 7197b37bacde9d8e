package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odontosorriso/booking-platform/internal/session"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// AdminHandler exposes read-only views of sessions for the clinic
// staff. Mounted behind the admin JWT middleware.
type AdminHandler struct {
	sessions session.Store
	archive  *session.Archive
	logger   *logging.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(sessions session.Store, archive *session.Archive, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{
		sessions: sessions,
		archive:  archive,
		logger:   logger,
	}
}

// SessionsResponse lists active sessions.
type SessionsResponse struct {
	Sessions []*session.Session `json:"sessions"`
	Count    int                `json:"count"`
}

// ListSessions handles GET /admin/sessions.
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// SessionDetail is one session with its archived transcript when a
// durable archive is configured.
type SessionDetail struct {
	Session  *session.Session  `json:"session"`
	Archived []session.Message `json:"archivedMessages,omitempty"`
}

// GetSession handles GET /admin/sessions/{phone}.
func (h *AdminHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	sess, err := h.sessions.Get(r.Context(), phone)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load session", "error", err, "phone", phone)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	detail := SessionDetail{Session: sess}
	if archived, err := h.archive.Messages(r.Context(), phone, 200); err == nil {
		detail.Archived = archived
	} else {
		h.logger.Error("failed to load archived transcript", "error", err, "phone", phone)
	}
	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
