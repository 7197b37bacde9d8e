package availability

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

// ErrSlotUnavailable is returned by Claim when the slot has no remaining
// capacity, does not exist inside the booking horizon, or is already in
// the past.
var ErrSlotUnavailable = errors.New("availability: slot unavailable")

// Slot is one bookable grid position with its remaining capacity.
type Slot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Remaining int    `json:"remaining"`
}

// Handle is the proof of a successful Claim. Releasing it puts the
// capacity back; persisting an appointment consumes it.
type Handle struct {
	Date      string
	Time      string
	Treatment clinic.Treatment
}

type slotKey struct {
	date string
	tick string
}

// Ledger is the single source of truth for slot capacity. Both booking
// channels claim against it, so all contention resolves under one lock:
// whichever claim acquires the mutex first wins the last unit.
type Ledger struct {
	mu       sync.Mutex
	slots    map[slotKey]int
	horizon  string // last date materialized so far, DateLayout
	hours    clinic.Hours
	capacity int
	now      func() time.Time
}

// NewLedger builds a ledger over the clinic schedule with the given
// per-slot capacity (chairs available at the same time).
func NewLedger(hours clinic.Hours, capacity int) *Ledger {
	if capacity < 1 {
		capacity = 1
	}
	return &Ledger{
		slots:    make(map[slotKey]int),
		hours:    hours,
		capacity: capacity,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// extend materializes every open day from today through the horizon that
// has not been seen yet. Called under l.mu.
func (l *Ledger) extend(today time.Time) {
	for offset := 0; offset < l.hours.HorizonDays; offset++ {
		day := today.AddDate(0, 0, offset)
		if !l.hours.IsOpenDay(day) {
			continue
		}
		date := day.Format(clinic.DateLayout)
		if date <= l.horizon {
			continue
		}
		for _, tick := range l.hours.Ticks(day) {
			l.slots[slotKey{date: date, tick: tick}] = l.capacity
		}
	}
	last := today.AddDate(0, 0, l.hours.HorizonDays-1).Format(clinic.DateLayout)
	if last > l.horizon {
		l.horizon = last
	}

	// Drop days that rolled out of the window so the map stays bounded
	// at one horizon's worth of slots.
	cutoff := today.Format(clinic.DateLayout)
	for key := range l.slots {
		if key.date < cutoff {
			delete(l.slots, key)
		}
	}
}

// inWindow reports whether the slot is inside the bookable window:
// within the horizon and strictly in the future.
func (l *Ledger) inWindow(date, tick string, now time.Time) bool {
	start, err := l.hours.SlotTime(date, tick)
	if err != nil {
		return false
	}
	if !start.After(now) {
		return false
	}
	return date <= l.hours.Today(now).AddDate(0, 0, l.hours.HorizonDays-1).Format(clinic.DateLayout)
}

// Claim atomically takes one unit of capacity for the slot. Exactly one
// caller wins the last unit; everyone else gets ErrSlotUnavailable.
func (l *Ledger) Claim(date, tick string, treatment clinic.Treatment) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.extend(l.hours.Today(now))

	if !l.inWindow(date, tick, now) {
		return Handle{}, ErrSlotUnavailable
	}
	key := slotKey{date: date, tick: tick}
	remaining, ok := l.slots[key]
	if !ok || remaining <= 0 {
		return Handle{}, ErrSlotUnavailable
	}
	l.slots[key] = remaining - 1
	return Handle{Date: date, Time: tick, Treatment: treatment}, nil
}

// Release returns the claimed unit, never raising capacity above the
// configured maximum. Releasing a slot that fell out of the horizon is
// a no-op.
func (l *Ledger) Release(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := slotKey{date: h.Date, tick: h.Time}
	remaining, ok := l.slots[key]
	if !ok {
		return
	}
	if remaining < l.capacity {
		l.slots[key] = remaining + 1
	}
}

// ListAvailable returns every open slot in the window, ordered by date
// then time. Slots in the past or with zero remaining capacity are
// filtered out.
func (l *Ledger) ListAvailable() []Slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.extend(l.hours.Today(now))

	out := make([]Slot, 0, len(l.slots))
	for key, remaining := range l.slots {
		if remaining <= 0 {
			continue
		}
		if !l.inWindow(key.date, key.tick, now) {
			continue
		}
		out = append(out, Slot{Date: key.date, Time: key.tick, Remaining: remaining})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// OpenDates returns up to limit distinct dates that still have at least
// one open slot, ascending.
func (l *Ledger) OpenDates(limit int) []string {
	var dates []string
	seen := map[string]bool{}
	for _, slot := range l.ListAvailable() {
		if seen[slot.Date] {
			continue
		}
		seen[slot.Date] = true
		dates = append(dates, slot.Date)
		if limit > 0 && len(dates) == limit {
			break
		}
	}
	return dates
}

// OpenTimes returns up to limit open times on the given date, ascending.
func (l *Ledger) OpenTimes(date string, limit int) []string {
	var times []string
	for _, slot := range l.ListAvailable() {
		if slot.Date != date {
			continue
		}
		times = append(times, slot.Time)
		if limit > 0 && len(times) == limit {
			break
		}
	}
	return times
}

// HasOpenSlot reports whether the given slot is currently claimable,
// without claiming it. Used by prompts to pre-check a patient's pick.
func (l *Ledger) HasOpenSlot(date, tick string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.extend(l.hours.Today(now))

	if !l.inWindow(date, tick, now) {
		return false
	}
	return l.slots[slotKey{date: date, tick: tick}] > 0
}
