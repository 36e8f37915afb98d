package logfactory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Metrics holds the factory's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	reg           prometheus.Registerer
	registered    []prometheus.Collector
	loggers       prometheus.Gauge
	built         *prometheus.CounterVec
	buildFailures *prometheus.CounterVec
	events        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered but still counting.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loggers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ServiceName,
			Name:      "loggers",
			Help:      "Number of live loggers in the container",
		}),
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "transports_built_total",
			Help:      "Transports built, by resolved transport type",
		}, []string{"transport"}),
		buildFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "transport_build_failures_total",
			Help:      "Transport builds that failed, by resolved transport type or \"unresolved\"",
		}, []string{"transport"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "events_total",
			Help:      "Events written through factory loggers, by level",
		}, []string{"level"}),
	}

	if reg == nil {
		return m, nil
	}
	m.reg = reg
	for _, c := range []prometheus.Collector{m.loggers, m.built, m.buildFailures, m.events} {
		if err := reg.Register(c); err != nil {
			m.unregister()
			return nil, err
		}
		m.registered = append(m.registered, c)
	}
	return m, nil
}

// unregister removes the collectors from the registerer they were added to,
// so the same registerer can be handed to a new Service.
func (m *Metrics) unregister() {
	if m == nil || m.reg == nil {
		return
	}
	for _, c := range m.registered {
		m.reg.Unregister(c)
	}
	m.registered = nil
}

// unresolvedTransport labels build failures whose name matched no transport type.
const unresolvedTransport = "unresolved"

func (m *Metrics) setLoggers(n int) {
	if m == nil {
		return
	}
	m.loggers.Set(float64(n))
}

func (m *Metrics) transportBuilt(name string) {
	if m == nil {
		return
	}
	m.built.WithLabelValues(name).Inc()
}

func (m *Metrics) transportFailed(name string) {
	if m == nil {
		return
	}
	m.buildFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) eventWritten(level zerolog.Level) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(level.String()).Inc()
}
