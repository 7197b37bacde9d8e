package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odontosorriso/booking-platform/internal/availability"
	"github.com/odontosorriso/booking-platform/internal/clinic"
	"github.com/odontosorriso/booking-platform/internal/observability/metrics"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// SlotReleaser puts a claimed slot back. Satisfied by the availability
// ledger.
type SlotReleaser interface {
	Release(h availability.Handle)
}

// Notifier observes appointment lifecycle events. Implementations must
// not fail the booking: delivery problems stay on their side.
type Notifier interface {
	BookingConfirmed(ctx context.Context, appt *Appointment)
	BookingCancelled(ctx context.Context, appt *Appointment)
}

// Service turns a claimed slot into a durable appointment and back.
type Service struct {
	repo     Repository
	ledger   SlotReleaser
	hours    clinic.Hours
	logger   *logging.Logger
	notifier Notifier
	metrics  *metrics.BookingMetrics
	now      func() time.Time
}

// NewService creates the appointment service.
func NewService(repo Repository, ledger SlotReleaser, hours clinic.Hours, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		ledger: ledger,
		hours:  hours,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithNotifier attaches a lifecycle observer, usually the clinic email
// notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithMetrics attaches booking metrics. A nil receiver on the metrics
// side is fine, so the service never checks.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// Create persists an appointment for an already-claimed slot. If the
// write fails the claim is released so the slot goes back on offer.
func (s *Service) Create(ctx context.Context, handle availability.Handle, patientName, phone, channel, notes string) (*Appointment, error) {
	scheduledFor, err := s.hours.SlotTime(handle.Date, handle.Time)
	if err != nil {
		s.ledger.Release(handle)
		return nil, fmt.Errorf("appointments: bad slot handle: %w", err)
	}

	appt := &Appointment{
		ID:           uuid.New().String(),
		PatientName:  strings.TrimSpace(patientName),
		PatientPhone: strings.TrimSpace(phone),
		Treatment:    handle.Treatment,
		Date:         handle.Date,
		Time:         handle.Time,
		ScheduledFor: scheduledFor,
		Channel:      channel,
		Status:       StatusConfirmed,
		Notes:        notes,
		CreatedAt:    s.now().UTC(),
	}
	if appt.PatientName == "" {
		appt.PatientName = "Paciente"
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		s.ledger.Release(handle)
		s.logger.Error("appointment persistence failed, slot released",
			"date", handle.Date, "time", handle.Time, "error", err)
		return nil, err
	}

	s.logger.Info("appointment confirmed",
		"appointment_id", appt.ID,
		"treatment", appt.Treatment,
		"date", appt.Date,
		"time", appt.Time,
		"channel", appt.Channel)
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, appt)
	}
	return appt, nil
}

// Cancel flips a confirmed appointment to cancelled and frees its slot.
func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	appt.Status = StatusCancelled
	s.ledger.Release(availability.Handle{
		Date:      appt.Date,
		Time:      appt.Time,
		Treatment: appt.Treatment,
	})

	s.logger.Info("appointment cancelled", "appointment_id", appt.ID,
		"date", appt.Date, "time", appt.Time)
	s.metrics.ObserveCancellation()
	if s.notifier != nil {
		s.notifier.BookingCancelled(ctx, appt)
	}
	return appt, nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all appointments, newest first.
func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.List(ctx)
}
