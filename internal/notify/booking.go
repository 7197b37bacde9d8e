package notify

import (
	"context"
	"fmt"

	"github.com/odontosorriso/booking-platform/internal/appointments"
	"github.com/odontosorriso/booking-platform/internal/clinic"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// BookingNotifier emails the clinic staff whenever an appointment is
// confirmed or cancelled. A nil notifier (email disabled) does nothing.
type BookingNotifier struct {
	sender      EmailSender
	clinicEmail string
	hours       clinic.Hours
	logger      *logging.Logger
}

// NewBookingNotifier creates the notifier. Returns nil when the sender
// or destination address is missing.
func NewBookingNotifier(sender EmailSender, clinicEmail string, hours clinic.Hours, logger *logging.Logger) *BookingNotifier {
	if sender == nil || clinicEmail == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingNotifier{
		sender:      sender,
		clinicEmail: clinicEmail,
		hours:       hours,
		logger:      logger,
	}
}

// BookingConfirmed emails the clinic about a new appointment. Delivery
// failures are logged, never propagated: the booking already happened.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) {
	if n == nil {
		return
	}
	msg := EmailMessage{
		To:      n.clinicEmail,
		ToName:  "Recepção OdontoSorriso",
		Subject: fmt.Sprintf("Novo agendamento: %s em %s às %s", clinic.DisplayName(appt.Treatment), appt.Date, appt.Time),
		Body: fmt.Sprintf("Paciente: %s\nTelefone: %s\nTratamento: %s\nData: %s às %s\nCanal: %s\nProtocolo: %s\n",
			appt.PatientName, appt.PatientPhone, clinic.DisplayName(appt.Treatment),
			n.hours.FormatDate(appt.Date), appt.Time, appt.Channel, appt.ID),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("booking confirmation email failed", "error", err, "appointment_id", appt.ID)
	}
}

// BookingCancelled emails the clinic about a cancellation.
func (n *BookingNotifier) BookingCancelled(ctx context.Context, appt *appointments.Appointment) {
	if n == nil {
		return
	}
	msg := EmailMessage{
		To:      n.clinicEmail,
		ToName:  "Recepção OdontoSorriso",
		Subject: fmt.Sprintf("Agendamento cancelado: %s em %s às %s", clinic.DisplayName(appt.Treatment), appt.Date, appt.Time),
		Body: fmt.Sprintf("Paciente: %s\nTelefone: %s\nProtocolo: %s\n",
			appt.PatientName, appt.PatientPhone, appt.ID),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("booking cancellation email failed", "error", err, "appointment_id", appt.ID)
	}
}
