// Package metrics holds the Prometheus collectors for the playback engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dalimagaadi/kord-app/internal/core"
)

const namespace = "kord"

// Metrics groups every collector exported by the engine.
type Metrics struct {
	SessionsTotal       *prometheus.CounterVec
	VendorCallsTotal    *prometheus.CounterVec
	SwallowedCallsTotal *prometheus.CounterVec
	VendorErrorsTotal   *prometheus.CounterVec
	StaleEventsTotal    *prometheus.CounterVec
	CorrectionsTotal    *prometheus.CounterVec
	Phase               *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Playback sessions started, by source",
			},
			[]string{"source"},
		),
		VendorCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vendor_calls_total",
				Help:      "Imperative calls issued to vendor players",
			},
			[]string{"source", "call"},
		),
		SwallowedCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swallowed_calls_total",
				Help:      "Control calls dropped because the adapter was not ready or not active",
			},
			[]string{"source", "call", "reason"},
		),
		VendorErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vendor_errors_total",
				Help:      "Runtime errors reported by vendor players",
			},
			[]string{"source"},
		),
		StaleEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_events_total",
				Help:      "Vendor events ignored because their session was superseded",
			},
			[]string{"source", "event"},
		),
		CorrectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intent_corrections_total",
				Help:      "Writes made by the synchronizer back into the playback intent",
			},
			[]string{"reason"},
		),
		Phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sync_phase",
				Help:      "1 for the synchronizer's current phase, 0 otherwise",
			},
			[]string{"phase"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.SessionsTotal,
			m.VendorCallsTotal,
			m.SwallowedCallsTotal,
			m.VendorErrorsTotal,
			m.StaleEventsTotal,
			m.CorrectionsTotal,
			m.Phase,
		)
	}

	return m
}

func (m *Metrics) SessionStarted(source core.Source) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) VendorCall(source core.Source, call string) {
	if m == nil {
		return
	}
	m.VendorCallsTotal.WithLabelValues(string(source), call).Inc()
}

func (m *Metrics) Swallowed(source core.Source, call, reason string) {
	if m == nil {
		return
	}
	m.SwallowedCallsTotal.WithLabelValues(string(source), call, reason).Inc()
}

func (m *Metrics) VendorError(source core.Source) {
	if m == nil {
		return
	}
	m.VendorErrorsTotal.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) StaleEvent(source core.Source, event string) {
	if m == nil {
		return
	}
	m.StaleEventsTotal.WithLabelValues(string(source), event).Inc()
}

func (m *Metrics) Correction(reason string) {
	if m == nil {
		return
	}
	m.CorrectionsTotal.WithLabelValues(reason).Inc()
}

// SetPhase marks phase as current and clears every other phase.
func (m *Metrics) SetPhase(phase core.Phase) {
	if m == nil {
		return
	}
	for _, p := range []core.Phase{core.PhaseIdle, core.PhaseAwaitingReady, core.PhaseSynced, core.PhaseCorrecting} {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.Phase.WithLabelValues(string(p)).Set(v)
	}
}
