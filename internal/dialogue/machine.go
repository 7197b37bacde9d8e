package dialogue

import (
	"strings"
	"time"

	"github.com/odontosorriso/booking-platform/internal/appointments"
	"github.com/odontosorriso/booking-platform/internal/clinic"
	"github.com/odontosorriso/booking-platform/internal/intent"
	"github.com/odontosorriso/booking-platform/internal/session"
)

// AvailabilityReader is the read side of the slot ledger the machine
// uses to offer dates and times. Claiming is the orchestrator's job.
type AvailabilityReader interface {
	OpenDates(limit int) []string
	OpenTimes(date string, limit int) []string
	HasOpenSlot(date, tick string) bool
}

// Outcome is the result of one conversational turn. Confirm reports
// that the patient accepted the summary and the slot should be claimed
// and persisted now.
type Outcome struct {
	Replies []string
	Confirm bool
}

// Machine advances a session through the booking flow one inbound
// message at a time. It mutates session state and draft but never
// touches slot capacity or storage.
type Machine struct {
	hours     clinic.Hours
	extractor *intent.Extractor
	slots     AvailabilityReader
	maxDates  int
	maxTimes  int
	now       func() time.Time
}

// NewMachine creates a dialogue machine. maxDates and maxTimes bound
// how many options a prompt lists.
func NewMachine(hours clinic.Hours, slots AvailabilityReader, maxDates, maxTimes int) *Machine {
	if maxDates < 1 {
		maxDates = 5
	}
	if maxTimes < 1 {
		maxTimes = 6
	}
	return &Machine{
		hours:     hours,
		extractor: intent.NewExtractor(hours),
		slots:     slots,
		maxDates:  maxDates,
		maxTimes:  maxTimes,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Turn applies one patient message to the session.
func (m *Machine) Turn(sess *session.Session, body string) Outcome {
	var replies []string

	if sess.State.Terminal() {
		sess.Restart()
		replies = append(replies, "Que bom falar com você de novo! Vamos começar um novo agendamento. 😁")
	}
	if sess.State == session.StateStart {
		sess.State = session.StateCollectingTreatment
	}

	awaiting := sess.State == session.StateAwaitingConfirmation
	intents := m.extractor.Extract(body, awaiting && sess.Draft.Complete(), m.now())

	if awaiting && isDenial(body) {
		sess.State = session.StateCancelled
		return Outcome{Replies: append(replies, msgCancelled)}
	}

	recognized := false
	for _, it := range intents {
		switch it.Kind {
		case intent.KindCancel:
			sess.State = session.StateCancelled
			return Outcome{Replies: append(replies, msgCancelled)}

		case intent.KindConfirm:
			return Outcome{Replies: replies, Confirm: true}

		case intent.KindSelectTreatment:
			recognized = true
			sess.Draft.Treatment = it.Treatment
			replies = append(replies, "Ótima escolha! "+clinic.DisplayName(it.Treatment)+".")

		case intent.KindSelectDate:
			recognized = true
			if reply, ok := m.applyDate(sess, it.Date); !ok {
				replies = append(replies, reply)
			}

		case intent.KindSelectTime:
			recognized = true
			if reply, ok := m.applyTime(sess, it.Time); !ok {
				replies = append(replies, reply)
			}

		case intent.KindGreeting:
			recognized = true
			replies = append(replies, msgGreeting)
		}
	}

	if !recognized {
		replies = append(replies, m.clarification(sess))
	}

	m.advance(sess)
	replies = append(replies, m.prompt(sess))
	return Outcome{Replies: replies}
}

// applyDate validates and records a date pick. The returned string is a
// correction reply when ok is false.
func (m *Machine) applyDate(sess *session.Session, date string) (string, bool) {
	day, err := time.ParseInLocation(clinic.DateLayout, date, m.hours.Location)
	if err != nil || !m.hours.IsOpenDay(day) {
		return "Não atendemos nesse dia. 😕 " + m.dateOptions(), false
	}
	if len(m.slots.OpenTimes(date, 1)) == 0 {
		return "Esse dia já está lotado. " + m.dateOptions(), false
	}
	if sess.Draft.Date != date {
		sess.Draft.Date = date
		// a new date invalidates any previously chosen time
		sess.Draft.Time = ""
	}
	return "", true
}

// applyTime validates and records a time pick. Requires a date.
func (m *Machine) applyTime(sess *session.Session, tick string) (string, bool) {
	if sess.Draft.Date == "" {
		return "Antes do horário, preciso saber o dia. " + m.dateOptions(), false
	}
	if !m.slots.HasOpenSlot(sess.Draft.Date, tick) {
		alternatives := m.slots.OpenTimes(sess.Draft.Date, m.maxTimes)
		if len(alternatives) == 0 {
			sess.Draft.Date = ""
			sess.Draft.Time = ""
			return "Esse dia acabou de lotar. 😔 " + m.dateOptions(), false
		}
		return "Esse horário não está disponível. Ainda temos: " + strings.Join(alternatives, ", ") + ".", false
	}
	sess.Draft.Time = tick
	return "", true
}

// advance moves the state to the first field still missing.
func (m *Machine) advance(sess *session.Session) {
	switch {
	case sess.Draft.Treatment == "":
		sess.State = session.StateCollectingTreatment
	case sess.Draft.Date == "":
		sess.State = session.StateCollectingDate
	case sess.Draft.Time == "":
		sess.State = session.StateCollectingTime
	default:
		sess.State = session.StateAwaitingConfirmation
	}
}

// prompt asks for the field the state is collecting.
func (m *Machine) prompt(sess *session.Session) string {
	switch sess.State {
	case session.StateCollectingTreatment:
		return msgTreatmentMenu()
	case session.StateCollectingDate:
		return "Para qual dia você prefere? " + m.dateOptions()
	case session.StateCollectingTime:
		times := m.slots.OpenTimes(sess.Draft.Date, m.maxTimes)
		if len(times) == 0 {
			sess.Draft.Date = ""
			sess.State = session.StateCollectingDate
			return "Esse dia acabou de lotar. 😔 " + m.dateOptions()
		}
		return "Para " + m.hours.FormatDate(sess.Draft.Date) + " temos: " +
			strings.Join(times, ", ") + ". Qual horário prefere?"
	case session.StateAwaitingConfirmation:
		return "Perfeito! Confirmando: " +
			clinic.DisplayName(clinic.Treatment(sess.Draft.Treatment)) +
			" em " + m.hours.FormatDate(sess.Draft.Date) +
			" às " + sess.Draft.Time + ". Posso confirmar? (sim/não)"
	}
	return msgGreeting
}

// clarification is the state-specific "didn't get that" reply.
func (m *Machine) clarification(sess *session.Session) string {
	switch sess.State {
	case session.StateCollectingDate:
		return "Desculpe, não entendi a data. Pode mandar no formato dia/mês, ou dizer \"amanhã\"?"
	case session.StateCollectingTime:
		return "Desculpe, não entendi o horário. Pode mandar como 14:00 ou 14h?"
	case session.StateAwaitingConfirmation:
		return "Só preciso de um sim ou não para confirmar. 😊"
	}
	return "Desculpe, não entendi."
}

func (m *Machine) dateOptions() string {
	dates := m.slots.OpenDates(m.maxDates)
	if len(dates) == 0 {
		return "No momento estamos sem horários livres. Tente novamente mais tarde, por favor."
	}
	formatted := make([]string, len(dates))
	for i, date := range dates {
		formatted[i] = m.hours.FormatDate(date)
	}
	return "Temos horários em: " + strings.Join(formatted, "; ") + "."
}

// CompleteBooking records the persisted appointment on the session and
// produces the final confirmation replies.
func (m *Machine) CompleteBooking(sess *session.Session, appt *appointments.Appointment) []string {
	sess.State = session.StateCompleted
	sess.AppointmentID = appt.ID
	return []string{
		"Olá, " + appt.PatientName + "! Seu agendamento foi confirmado para " +
			m.hours.FormatDate(appt.Date) + " às " + appt.Time +
			". Protocolo " + appt.ID + ".",
		"Até breve! 🦷",
	}
}

// SlotRejected handles a claim that lost the race: the chosen time is
// dropped and the patient picks again from what is still open.
func (m *Machine) SlotRejected(sess *session.Session) []string {
	sess.Draft.Time = ""
	sess.State = session.StateCollectingTime

	times := m.slots.OpenTimes(sess.Draft.Date, m.maxTimes)
	if len(times) == 0 {
		sess.Draft.Date = ""
		sess.State = session.StateCollectingDate
		return []string{"Poxa, esse horário acabou de ser preenchido. 😔 " + m.dateOptions()}
	}
	return []string{"Poxa, esse horário acabou de ser preenchido. 😔 Ainda temos: " +
		strings.Join(times, ", ") + ". Qual prefere?"}
}

const msgGreeting = "Olá! Sou o assistente virtual da OdontoSorriso. 😁 Vou te ajudar a marcar sua consulta."

const msgCancelled = "Tudo bem, agendamento cancelado. Se mudar de ideia, é só chamar! 👋"

func msgTreatmentMenu() string {
	var b strings.Builder
	b.WriteString("Qual tratamento você procura?\n")
	for _, treatment := range clinic.Treatments {
		b.WriteString("• ")
		b.WriteString(clinic.DisplayName(treatment))
		b.WriteString("\n")
	}
	b.WriteString("Pode responder com o nome do tratamento.")
	return b.String()
}

// isDenial reports a plain "no" while the summary is on the table.
func isDenial(body string) bool {
	for _, word := range strings.Fields(clinic.Normalize(body)) {
		if word == "nao" {
			return true
		}
	}
	return false
}
