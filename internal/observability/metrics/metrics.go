package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking engine.
type BookingMetrics struct {
	turnsTotal      *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	slotConflicts   prometheus.Counter
	cancellations   prometheus.Counter
	turnLatency     prometheus.Histogram
	outboundReplies prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "odonto",
			Subsystem: "booking",
			Name:      "turns_total",
			Help:      "Total conversational turns processed",
		}, []string{"channel", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "odonto",
			Subsystem: "booking",
			Name:      "confirmed_total",
			Help:      "Total confirmed appointments",
		}, []string{"channel", "treatment"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Total claims that lost the race for a slot",
		}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Total cancelled appointments",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "odonto",
			Subsystem: "booking",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one conversational turn",
			Buckets:   prometheus.DefBuckets,
		}),
		outboundReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Subsystem: "booking",
			Name:      "outbound_replies_total",
			Help:      "Total agent replies produced",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.slotConflicts,
		m.cancellations, m.turnLatency, m.outboundReplies)
	return m
}

func (m *BookingMetrics) ObserveTurn(channel, status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(channel, status).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveBookingConfirmed(channel, treatment string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(channel, treatment).Inc()
}

func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

func (m *BookingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

func (m *BookingMetrics) ObserveReplies(count int) {
	if m == nil {
		return
	}
	m.outboundReplies.Add(float64(count))
}
