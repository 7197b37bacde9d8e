package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odontosorriso/booking-platform/internal/availability"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// Booker books a validated web request end to end: claim the slot,
// persist the appointment, free the claim on failure. Implemented by
// the booking orchestrator.
type Booker interface {
	BookDirect(ctx context.Context, req CreateRequest) (*Appointment, error)
}

// AvailabilityReader exposes the open slot grid for the web form.
type AvailabilityReader interface {
	ListAvailable() []availability.Slot
}

// Handler handles HTTP requests for appointments and availability.
type Handler struct {
	booker  Booker
	service *Service
	slots   AvailabilityReader
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(booker Booker, service *Service, slots AvailabilityReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		booker:  booker,
		service: service,
		slots:   slots,
		logger:  logger,
	}
}

// Create handles POST /api/appointments requests from the web form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode appointment request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	appt, err := h.booker.BookDirect(r.Context(), req)
	if err != nil {
		if errors.Is(err, availability.ErrSlotUnavailable) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "Este horário acabou de ser preenchido. Por favor, escolha outro.",
			})
			return
		}
		h.logger.Error("failed to book appointment", "error", err)
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// ListResponse is the response for listing appointments. Availability
// rides along so the booking board can render both from one request.
type ListResponse struct {
	Appointments []*Appointment      `json:"appointments"`
	Count        int                 `json:"count"`
	Availability []availability.Slot `json:"availability"`
}

// List handles GET /api/appointments requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	slots := h.slots.ListAvailable()
	if slots == nil {
		slots = []availability.Slot{}
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Appointments: appts,
		Count:        len(appts),
		Availability: slots,
	})
}

// Get handles GET /api/appointments/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "id", id)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles POST /api/appointments/{id}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := h.service.Cancel(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrAlreadyCancelled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "appointment already cancelled"})
		return
	case err != nil:
		h.logger.Error("failed to cancel appointment", "error", err, "id", id)
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// AvailabilityResponse is the response for the open slot grid.
type AvailabilityResponse struct {
	Slots []availability.Slot `json:"slots"`
	Count int                 `json:"count"`
}

// Availability handles GET /api/availability requests.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	slots := h.slots.ListAvailable()
	if date := r.URL.Query().Get("date"); date != "" {
		filtered := slots[:0]
		for _, slot := range slots {
			if slot.Date == date {
				filtered = append(filtered, slot)
			}
		}
		slots = filtered
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Slots: slots, Count: len(slots)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
