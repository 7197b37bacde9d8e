// Package session holds per-patient conversational state: message history
// plus the in-progress booking draft.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

// State names a position in the booking dialogue.
type State string

const (
	StateStart                State = "start"
	StateCollectingTreatment  State = "collecting_treatment"
	StateCollectingDate       State = "collecting_date"
	StateCollectingTime       State = "collecting_time"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCompleted            State = "completed"
	StateCancelled            State = "cancelled"
)

// Terminal reports whether the state absorbs the dialogue until the next
// inbound message restarts it.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Message roles as rendered by the chat surfaces.
const (
	FromPatient = "paciente"
	FromAgent   = "agente"
)

// Message is one turn of the conversation, serializable for display.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PartialBooking is the not-yet-committed set of chosen fields. Each field
// stays empty until the patient supplies it.
type PartialBooking struct {
	PatientName string           `json:"patientName,omitempty"`
	Treatment   clinic.Treatment `json:"treatment,omitempty"`
	Date        string           `json:"date,omitempty"`
	Time        string           `json:"time,omitempty"`
}

// Complete reports whether every field required for a claim is filled.
// The patient name is optional in the chat flow; the reply layer falls back
// to a placeholder.
func (p PartialBooking) Complete() bool {
	return p.Treatment != "" && p.Date != "" && p.Time != ""
}

// Session is the per-phone dialogue record. History is append-only; the
// draft is replaced wholesale when a terminal state restarts the flow.
type Session struct {
	Phone         string         `json:"phone"`
	State         State          `json:"state"`
	Draft         PartialBooking `json:"draft"`
	Messages      []Message      `json:"messages"`
	AppointmentID string         `json:"appointmentId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// New creates a fresh session for an unseen phone number.
func New(phone string, now time.Time) *Session {
	return &Session{
		Phone:     phone,
		State:     StateStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records a message in the history and returns it.
func (s *Session) Append(from, content string, now time.Time) Message {
	msg := Message{
		ID:        uuid.New().String(),
		From:      from,
		Content:   content,
		Timestamp: now,
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = now
	return msg
}

// Restart archives the finished draft and opens a new one, preserving the
// message history.
func (s *Session) Restart() {
	s.Draft = PartialBooking{}
	s.AppointmentID = ""
	s.State = StateCollectingTreatment
}
