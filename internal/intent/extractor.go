package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

// Extractor classifies inbound text against an ordered list of matcher
// rules: cancellation, confirmation, treatment, date, time. A message can
// carry several fields at once ("limpeza amanhã às 14h"), so Extract may
// return more than one intent, at most one per category, ordered by rule
// priority.
type Extractor struct {
	hours clinic.Hours
}

// NewExtractor creates an extractor bound to the clinic calendar, which is
// needed to resolve relative dates ("amanhã", weekday names).
func NewExtractor(hours clinic.Hours) *Extractor {
	return &Extractor{hours: hours}
}

var cancelWords = []string{"cancelar", "desmarcar", "cancela", "desistir", "desisto"}

var confirmWords = []string{"sim", "confirmar", "confirmo", "ok", "isso", "confirma"}

var greetingWords = []string{"oi", "ola", "oii", "hey"}

var greetingPhrases = []string{"bom dia", "boa tarde", "boa noite", "tudo bem"}

var (
	isoDateRE     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDateRE = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	timeRE        = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2})|h(\d{2})?)\b`)
)

// weekdayTokens is scanned in week order so a message naming two days
// always resolves to the same one.
var weekdayTokens = []struct {
	token   string
	weekday time.Weekday
}{
	{"domingo", time.Sunday},
	{"segunda", time.Monday},
	{"terca", time.Tuesday},
	{"quarta", time.Wednesday},
	{"quinta", time.Thursday},
	{"sexta", time.Friday},
	{"sabado", time.Saturday},
}

// Extract classifies text in fixed priority order. draftComplete gates the
// confirmation rule: "sim" only confirms once every booking field is filled,
// otherwise it falls through and ends up unrecognized (the dialogue layer
// re-prompts for the missing field). Unrecognized input is never an error.
func (e *Extractor) Extract(text string, draftComplete bool, now time.Time) []Intent {
	normalized := clinic.Normalize(strings.TrimSpace(text))
	words := tokenize(normalized)

	var intents []Intent

	if containsAny(words, cancelWords) {
		intents = append(intents, Intent{Kind: KindCancel, Raw: text})
		// Cancellation absorbs the turn; nothing else in the message matters.
		return intents
	}

	if draftComplete && containsAny(words, confirmWords) {
		intents = append(intents, Intent{Kind: KindConfirm, Raw: text})
	}

	if treatment, ok := clinic.MatchTreatment(text); ok {
		intents = append(intents, Intent{Kind: KindSelectTreatment, Treatment: treatment, Raw: text})
	}

	if date, ok := e.matchDate(normalized, words, now); ok {
		intents = append(intents, Intent{Kind: KindSelectDate, Date: date, Raw: text})
	}

	if tick, ok := matchTime(normalized); ok {
		intents = append(intents, Intent{Kind: KindSelectTime, Time: tick, Raw: text})
	}

	if len(intents) > 0 {
		return intents
	}

	if containsAny(words, greetingWords) || containsAnyPhrase(normalized, greetingPhrases) {
		return []Intent{{Kind: KindGreeting, Raw: text}}
	}

	return []Intent{{Kind: KindUnrecognized, Raw: text}}
}

// matchDate resolves date-like tokens against the current date. Relative
// tokens always resolve to the nearest future occurrence (today counts).
func (e *Extractor) matchDate(normalized string, words []string, now time.Time) (string, bool) {
	today := e.hours.Today(now)

	if containsAny(words, []string{"hoje"}) {
		return today.Format(clinic.DateLayout), true
	}
	if containsAny(words, []string{"amanha"}) {
		return today.AddDate(0, 0, 1).Format(clinic.DateLayout), true
	}

	for _, wt := range weekdayTokens {
		if !containsAny(words, []string{wt.token, wt.token + "-feira"}) {
			continue
		}
		day := today
		for day.Weekday() != wt.weekday {
			day = day.AddDate(0, 0, 1)
		}
		return day.Format(clinic.DateLayout), true
	}

	if m := isoDateRE.FindStringSubmatch(normalized); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if date, ok := buildDate(year, month, day, e.hours.Location); ok {
			return date, true
		}
	}

	if m := numericDateRE.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if date, ok := buildDate(year, month, day, e.hours.Location); ok {
			// Without an explicit year, a past dd/mm means next year.
			if m[3] == "" && date < today.Format(clinic.DateLayout) {
				if next, ok := buildDate(year+1, month, day, e.hours.Location); ok {
					return next, true
				}
			}
			return date, true
		}
	}

	return "", false
}

// matchTime recognizes "14h", "14h30", "14:00". A bare number never counts
// as a time so day-of-month digits do not get misread.
func matchTime(normalized string) (string, bool) {
	m := timeRE.FindStringSubmatch(normalized)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	} else if m[3] != "" {
		minute, _ = strconv.Atoi(m[3])
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	return twoDigit(hour) + ":" + twoDigit(minute), true
}

func buildDate(year, month, day int, loc *time.Location) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// Reject rollovers like 31/02.
	if date.Day() != day || int(date.Month()) != month {
		return "", false
	}
	return date.Format(clinic.DateLayout), true
}

func twoDigit(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func tokenize(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		switch r {
		case ' ', ',', '.', '!', '?', ';', '\n', '\t':
			return true
		}
		return false
	})
}

func containsAny(words []string, targets []string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}

func containsAnyPhrase(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
