package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking and payment workflow.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	paymentsTotal      *prometheus.CounterVec
	intentsTotal       *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	availabilityTime   prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "bookings",
			Name:      "create_total",
			Help:      "Booking create attempts by outcome",
		}, []string{"outcome"}),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "payments",
			Name:      "confirm_total",
			Help:      "Payment confirmations by status",
		}, []string{"status"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "payments",
			Name:      "intent_total",
			Help:      "Payment intents requested from the gateway by status",
		}, []string{"status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "notify",
			Name:      "email_total",
			Help:      "Notification emails by kind and status",
		}, []string{"kind", "status"}),
		availabilityTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "availability",
			Name:      "resolve_seconds",
			Help:      "Latency of availability resolution",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.paymentsTotal, m.intentsTotal, m.notificationsTotal, m.availabilityTime)
	return m
}

// ObserveBooking records a create outcome: created, already_booked, slot_taken, invalid or error.
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObservePayment(status string) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveIntent(status string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *BookingMetrics) ObserveAvailability(seconds float64) {
	if m == nil {
		return
	}
	m.availabilityTime.Observe(seconds)
}
