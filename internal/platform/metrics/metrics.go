// Package metrics defines the Prometheus collectors of both binaries. Every
// recorder is nil-safe so components can run without a registry in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "monkey"

// Verification outcomes
const (
	OutcomeVerified         = "verified"
	OutcomeUnknownToken     = "unknown_token"
	OutcomeAlreadyScanned   = "already_scanned"
	OutcomeWrongDestination = "wrong_destination"
	OutcomeError            = "error"
)

// JourneyMetrics records journey lifecycle activity in the kiosk gateway.
type JourneyMetrics struct {
	opened          prometheus.Counter
	tokensIssued    prometheus.Counter
	tokenCollisions prometheus.Counter
	verifications   *prometheus.CounterVec
	reconciled      *prometheus.CounterVec
	duration        prometheus.Histogram
	bananaReturns   prometheus.Counter
}

// NewJourneyMetrics registers the journey metrics on reg.
func NewJourneyMetrics(reg prometheus.Registerer) *JourneyMetrics {
	if reg == nil {
		return &JourneyMetrics{}
	}
	m := &JourneyMetrics{
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journeys_opened_total",
			Help:      "Journeys opened by a kiosk button press.",
		}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_tokens_issued_total",
			Help:      "Navigation tokens bound to a journey.",
		}),
		tokenCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_token_collisions_total",
			Help:      "Generated tokens rejected by the uniqueness constraint.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrival_verifications_total",
			Help:      "Arrival verifications by outcome.",
		}, []string{"outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journey_mismatches_total",
			Help:      "Scans whose expected journey differed from the token owner, by whether the stray journey was deleted.",
		}, []string{"deleted"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "journey_duration_seconds",
			Help:      "Time from button press to verified arrival.",
			Buckets:   []float64{30, 60, 120, 300, 600, 900, 1800, 3600},
		}),
		bananaReturns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "banana_returns_total",
			Help:      "Guide bananas handed back to a kiosk.",
		}),
	}
	reg.MustRegister(m.opened, m.tokensIssued, m.tokenCollisions, m.verifications, m.reconciled, m.duration, m.bananaReturns)
	return m
}

func (m *JourneyMetrics) IncOpened() {
	if m == nil || m.opened == nil {
		return
	}
	m.opened.Inc()
}

func (m *JourneyMetrics) IncTokenIssued() {
	if m == nil || m.tokensIssued == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *JourneyMetrics) IncTokenCollision() {
	if m == nil || m.tokenCollisions == nil {
		return
	}
	m.tokenCollisions.Inc()
}

// IncVerification counts one verification with one of the Outcome constants.
func (m *JourneyMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *JourneyMetrics) IncMismatch(deleted bool) {
	if m == nil || m.reconciled == nil {
		return
	}
	m.reconciled.WithLabelValues(strconv.FormatBool(deleted)).Inc()
}

func (m *JourneyMetrics) ObserveJourneyDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func (m *JourneyMetrics) IncBananaReturn() {
	if m == nil || m.bananaReturns == nil {
		return
	}
	m.bananaReturns.Inc()
}

// RelayMetrics records outbox relay and projection activity in the event processor.
type RelayMetrics struct {
	published       prometheus.Counter
	publishFailures prometheus.Counter
	abandoned       prometheus.Counter
	projected       *prometheus.CounterVec
	deadLettered    prometheus.Counter
	pollDuration    prometheus.Histogram
}

// NewRelayMetrics registers the relay metrics on reg.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	m := &RelayMetrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox messages published to Kafka.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_failures_total",
			Help:      "Failed outbox publish attempts.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failed_to_publish_total",
			Help:      "Outbox messages that exhausted their publish attempts.",
		}),
		projected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_projected_total",
			Help:      "Journey events handled by the projection, by result.",
		}, []string{"event_type", "result"}),
		deadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dead_lettered_total",
			Help:      "Kafka messages routed to the dead letter topic.",
		}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_poll_duration_seconds",
			Help:      "Duration of one outbox polling cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.published, m.publishFailures, m.abandoned, m.projected, m.deadLettered, m.pollDuration)
	return m
}

func (m *RelayMetrics) IncPublished() {
	if m == nil || m.published == nil {
		return
	}
	m.published.Inc()
}

func (m *RelayMetrics) IncPublishFailure() {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.Inc()
}

func (m *RelayMetrics) IncAbandoned() {
	if m == nil || m.abandoned == nil {
		return
	}
	m.abandoned.Inc()
}

// IncProjected counts a projection result: inserted, duplicate, collision or failed.
func (m *RelayMetrics) IncProjected(eventType, result string) {
	if m == nil || m.projected == nil {
		return
	}
	m.projected.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func (m *RelayMetrics) IncDeadLettered() {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.Inc()
}

func (m *RelayMetrics) ObservePoll(d time.Duration) {
	if m == nil || m.pollDuration == nil {
		return
	}
	m.pollDuration.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
