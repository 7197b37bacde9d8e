package appointments

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

// Status of an appointment. Slots are only held by confirmed rows.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Channel records which surface created the appointment.
const (
	ChannelChat = "chat"
	ChannelWeb  = "web"
)

var (
	ErrNotFound         = errors.New("appointments: not found")
	ErrAlreadyCancelled = errors.New("appointments: already cancelled")
)

// Appointment is a confirmed (or later cancelled) booking. Date and Time
// repeat the slot key so a cancellation can put the capacity back.
type Appointment struct {
	ID           string           `json:"id"`
	PatientName  string           `json:"patientName"`
	PatientPhone string           `json:"patientPhone"`
	Treatment    clinic.Treatment `json:"treatment"`
	Date         string           `json:"date"`
	Time         string           `json:"time"`
	ScheduledFor time.Time        `json:"scheduledFor"`
	Channel      string           `json:"channel"`
	Status       string           `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// CreateRequest carries the fields a caller provides to book a slot.
type CreateRequest struct {
	PatientName string `json:"patientName"`
	Phone       string `json:"phone"`
	Treatment   string `json:"treatment"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks the request before any slot is claimed.
func (r *CreateRequest) Validate() error {
	var problems []string
	if len(strings.TrimSpace(r.PatientName)) < 3 {
		problems = append(problems, "patientName must have at least 3 characters")
	}
	if len(strings.TrimSpace(r.Phone)) < 8 {
		problems = append(problems, "phone must have at least 8 digits")
	}
	if !clinic.ValidTreatment(r.Treatment) {
		problems = append(problems, "treatment is not offered")
	}
	if _, err := time.Parse(clinic.DateLayout, r.Date); err != nil {
		problems = append(problems, "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(clinic.TimeLayout, r.Time); err != nil {
		problems = append(problems, "time must be HH:MM")
	}
	if len(problems) > 0 {
		return fmt.Errorf("appointments: invalid request: %s", strings.Join(problems, "; "))
	}
	return nil
}
