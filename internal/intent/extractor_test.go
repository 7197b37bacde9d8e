package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

func newTestExtractor(t *testing.T) (*Extractor, time.Time) {
	t.Helper()
	hours, err := clinic.DefaultHours("America/Sao_Paulo")
	require.NoError(t, err)
	// Tuesday, 2026-09-01 10:00 local.
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, hours.Location)
	return NewExtractor(hours), now
}

func kinds(intents []Intent) []Kind {
	out := make([]Kind, 0, len(intents))
	for _, in := range intents {
		out = append(out, in.Kind)
	}
	return out
}

func TestExtractCancelAbsorbsEverything(t *testing.T) {
	e, now := newTestExtractor(t)

	intents := e.Extract("quero cancelar a limpeza de amanhã", true, now)

	require.Len(t, intents, 1)
	assert.Equal(t, KindCancel, intents[0].Kind)
}

func TestExtractConfirmOnlyWithCompleteDraft(t *testing.T) {
	e, now := newTestExtractor(t)

	complete := e.Extract("sim", true, now)
	require.Len(t, complete, 1)
	assert.Equal(t, KindConfirm, complete[0].Kind)

	incomplete := e.Extract("sim", false, now)
	require.Len(t, incomplete, 1)
	assert.Equal(t, KindUnrecognized, incomplete[0].Kind)
}

func TestExtractTreatment(t *testing.T) {
	e, now := newTestExtractor(t)

	intents := e.Extract("gostaria de um clareamento", false, now)

	require.Len(t, intents, 1)
	assert.Equal(t, KindSelectTreatment, intents[0].Kind)
	assert.Equal(t, clinic.TreatmentClareamento, intents[0].Treatment)
}

func TestExtractRelativeDates(t *testing.T) {
	e, now := newTestExtractor(t)

	cases := map[string]string{
		"hoje pode ser?":   "2026-09-01",
		"amanhã":           "2026-09-02",
		"pode ser terça":   "2026-09-01", // today is tuesday
		"quinta-feira":     "2026-09-03",
		"sábado de manhã":  "2026-09-05",
		"dia 10/09":        "2026-09-10",
		"no dia 2026-09-15": "2026-09-15",
	}
	for text, want := range cases {
		intents := e.Extract(text, false, now)
		require.Len(t, intents, 1, "text %q", text)
		assert.Equal(t, KindSelectDate, intents[0].Kind, "text %q", text)
		assert.Equal(t, want, intents[0].Date, "text %q", text)
	}
}

func TestExtractTwoWeekdaysResolvesInWeekOrder(t *testing.T) {
	e, now := newTestExtractor(t)

	// Week-order scan: segunda wins over sexta no matter how the
	// message orders them.
	intents := e.Extract("pode ser sexta ou segunda", false, now)

	require.Len(t, intents, 1)
	assert.Equal(t, KindSelectDate, intents[0].Kind)
	assert.Equal(t, "2026-09-07", intents[0].Date) // next monday
}

func TestExtractPastNumericDateRollsToNextYear(t *testing.T) {
	e, now := newTestExtractor(t)

	intents := e.Extract("dia 15/03", false, now)

	require.Len(t, intents, 1)
	assert.Equal(t, "2027-03-15", intents[0].Date)
}

func TestExtractTimes(t *testing.T) {
	e, now := newTestExtractor(t)

	cases := map[string]string{
		"às 14h":       "14:00",
		"14:30":        "14:30",
		"pode ser 9h15": "09:15",
	}
	for text, want := range cases {
		intents := e.Extract(text, false, now)
		require.Len(t, intents, 1, "text %q", text)
		assert.Equal(t, KindSelectTime, intents[0].Kind, "text %q", text)
		assert.Equal(t, want, intents[0].Time, "text %q", text)
	}
}

func TestExtractRejectsImpossibleValues(t *testing.T) {
	e, now := newTestExtractor(t)

	intents := e.Extract("31/02", false, now)
	require.Len(t, intents, 1)
	assert.Equal(t, KindUnrecognized, intents[0].Kind)

	intents = e.Extract("25h", false, now)
	require.Len(t, intents, 1)
	assert.Equal(t, KindUnrecognized, intents[0].Kind)
}

func TestExtractMultipleFieldsInOneMessage(t *testing.T) {
	e, now := newTestExtractor(t)

	intents := e.Extract("limpeza amanhã às 14h", false, now)

	assert.Equal(t, []Kind{KindSelectTreatment, KindSelectDate, KindSelectTime}, kinds(intents))
	assert.Equal(t, clinic.TreatmentLimpeza, intents[0].Treatment)
	assert.Equal(t, "2026-09-02", intents[1].Date)
	assert.Equal(t, "14:00", intents[2].Time)
}

func TestExtractGreeting(t *testing.T) {
	e, now := newTestExtractor(t)

	for _, text := range []string{"Oi", "Olá!", "bom dia"} {
		intents := e.Extract(text, false, now)
		require.Len(t, intents, 1, "text %q", text)
		assert.Equal(t, KindGreeting, intents[0].Kind, "text %q", text)
	}
}

func TestExtractGibberishIsUnrecognized(t *testing.T) {
	e, now := newTestExtractor(t)

	intents := e.Extract("xyzzy plugh", false, now)

	require.Len(t, intents, 1)
	assert.Equal(t, KindUnrecognized, intents[0].Kind)
	assert.Equal(t, "xyzzy plugh", intents[0].Raw)
}
