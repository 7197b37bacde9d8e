package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/odontosorriso/booking-platform/internal/appointments"
	"github.com/odontosorriso/booking-platform/internal/availability"
	"github.com/odontosorriso/booking-platform/internal/clinic"
	"github.com/odontosorriso/booking-platform/internal/dialogue"
	"github.com/odontosorriso/booking-platform/internal/observability/metrics"
	"github.com/odontosorriso/booking-platform/internal/session"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// SlotClaimer is the write side of the availability ledger.
type SlotClaimer interface {
	Claim(date, tick string, treatment clinic.Treatment) (availability.Handle, error)
}

// TurnResult is everything one inbound message produced.
type TurnResult struct {
	Replies     []string                  `json:"replies"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
	Session     *session.Session          `json:"session"`
}

// Orchestrator ties the dialogue machine, the slot ledger and the
// appointment store together. It is the only place where a confirmed
// draft turns into a claimed slot and a persisted appointment, so both
// channels funnel through it.
type Orchestrator struct {
	sessions session.Store
	machine  *dialogue.Machine
	ledger   SlotClaimer
	service  *appointments.Service
	archive  *session.Archive
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewOrchestrator creates the booking orchestrator.
func NewOrchestrator(
	sessions session.Store,
	machine *dialogue.Machine,
	ledger SlotClaimer,
	service *appointments.Service,
	archive *session.Archive,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		sessions: sessions,
		machine:  machine,
		ledger:   ledger,
		service:  service,
		archive:  archive,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

const msgBookingFailed = "Desculpe, tivemos um problema ao confirmar seu agendamento. Pode tentar novamente em instantes?"

// HandleTurn runs one inbound patient message through the dialogue and,
// when the patient confirms, claims the slot and persists the
// appointment inside the same session update. Turns for the same phone
// are serialized by the session store.
func (o *Orchestrator) HandleTurn(ctx context.Context, phone, body string) (*TurnResult, error) {
	start := o.now()
	var replies []string
	var appt *appointments.Appointment
	var archiveFrom int

	sess, err := o.sessions.Update(ctx, phone, func(s *session.Session) error {
		archiveFrom = len(s.Messages)
		s.Append(session.FromPatient, body, o.now())

		out := o.machine.Turn(s, body)
		replies = out.Replies

		if out.Confirm {
			replies = append(replies, o.confirmDraft(ctx, s, &appt)...)
		}

		for _, reply := range replies {
			s.Append(session.FromAgent, reply, o.now())
		}
		return nil
	})
	if err != nil {
		o.metrics.ObserveTurn(appointments.ChannelChat, "error", o.now().Sub(start).Seconds())
		return nil, fmt.Errorf("booking: handle turn: %w", err)
	}

	o.archiveMessages(ctx, phone, sess.Messages[archiveFrom:])
	o.metrics.ObserveTurn(appointments.ChannelChat, "ok", o.now().Sub(start).Seconds())
	o.metrics.ObserveReplies(len(replies))

	return &TurnResult{Replies: replies, Appointment: appt, Session: sess}, nil
}

// confirmDraft claims the drafted slot and persists the appointment.
// Losing the claim race re-opens time selection with fresh options.
func (o *Orchestrator) confirmDraft(ctx context.Context, s *session.Session, appt **appointments.Appointment) []string {
	handle, err := o.ledger.Claim(s.Draft.Date, s.Draft.Time, clinic.Treatment(s.Draft.Treatment))
	if err != nil {
		o.metrics.ObserveSlotConflict()
		o.logger.Info("slot claim lost", "phone", s.Phone,
			"date", s.Draft.Date, "time", s.Draft.Time)
		return o.machine.SlotRejected(s)
	}

	created, err := o.service.Create(ctx, handle, s.Draft.PatientName, s.Phone, appointments.ChannelChat, "")
	if err != nil {
		// the service already released the claim
		o.logger.Error("booking persistence failed", "error", err, "phone", s.Phone)
		return []string{msgBookingFailed}
	}

	*appt = created
	o.metrics.ObserveBookingConfirmed(appointments.ChannelChat, string(created.Treatment))
	return o.machine.CompleteBooking(s, created)
}

// BookDirect books a slot for the web form in one shot: claim, persist,
// release on failure. Returns availability.ErrSlotUnavailable when the
// slot was taken first.
func (o *Orchestrator) BookDirect(ctx context.Context, req appointments.CreateRequest) (*appointments.Appointment, error) {
	handle, err := o.ledger.Claim(req.Date, req.Time, clinic.Treatment(req.Treatment))
	if err != nil {
		o.metrics.ObserveSlotConflict()
		return nil, err
	}

	appt, err := o.service.Create(ctx, handle, req.PatientName, req.Phone, appointments.ChannelWeb, req.Notes)
	if err != nil {
		return nil, err
	}

	o.metrics.ObserveBookingConfirmed(appointments.ChannelWeb, string(appt.Treatment))
	return appt, nil
}

// archiveMessages copies freshly appended messages to the durable
// transcript. Best effort: the archive is a secondary record.
func (o *Orchestrator) archiveMessages(ctx context.Context, phone string, msgs []session.Message) {
	for _, msg := range msgs {
		if err := o.archive.AppendMessage(ctx, phone, msg); err != nil {
			o.logger.Error("transcript archive failed", "error", err, "phone", phone)
			return
		}
	}
}
