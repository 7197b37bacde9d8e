// Package intent turns free-form patient messages into structured booking
// intents. Extraction is pure: no session mutation, no I/O.
package intent

import (
	"github.com/odontosorriso/booking-platform/internal/clinic"
)

// Kind tags the meaning extracted from one message.
type Kind string

const (
	KindGreeting        Kind = "greeting"
	KindSelectTreatment Kind = "select_treatment"
	KindSelectDate      Kind = "select_date"
	KindSelectTime      Kind = "select_time"
	KindConfirm         Kind = "confirm"
	KindCancel          Kind = "cancel"
	KindUnrecognized    Kind = "unrecognized"
)

// Intent is the structured meaning of one inbound message. Only the field
// matching the Kind is populated.
type Intent struct {
	Kind      Kind
	Treatment clinic.Treatment
	Date      string // clinic.DateLayout
	Time      string // clinic.TimeLayout
	Raw       string
}
