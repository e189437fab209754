// Package telemetry turns bus events into Prometheus metrics and sets up
// OpenTelemetry tracing.
package telemetry

import (
	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var log = logger.Named("telemetry")

// Subscriber is the read side of the bus.
type Subscriber interface {
	Subscribe(kind bus.Kind, fn func(bus.Event)) (*bus.Subscription, error)
}

// Metrics holds the collectors fed from the bus.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls      *prometheus.CounterVec
	consent        *prometheus.CounterVec
	errors         prometheus.Counter
	desktopChanges prometheus.Counter
	changedPaths   prometheus.Counter
}

// NewMetrics registers the collectors, plus the Go and process collectors, on
// a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deskr",
				Subsystem: "tools",
				Name:      "calls_total",
				Help:      "Tool invocations by function name.",
			},
			[]string{"plugin", "function"},
		),
		consent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deskr",
				Subsystem: "consent",
				Name:      "decisions_total",
				Help:      "Consent prompts by outcome.",
			},
			[]string{"decision"},
		),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskr",
			Subsystem: "chat",
			Name:      "errors_total",
			Help:      "Conversation failures reported to the user.",
		}),
		desktopChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskr",
			Subsystem: "desktop",
			Name:      "changes_total",
			Help:      "Debounced batches of desktop changes.",
		}),
		changedPaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskr",
			Subsystem: "desktop",
			Name:      "changed_paths_total",
			Help:      "Paths reported in desktop change batches.",
		}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.consent,
		m.errors,
		m.desktopChanges,
		m.changedPaths,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is served at /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Attach subscribes to every event kind. The caller owns the subscription.
func (m *Metrics) Attach(s Subscriber) (*bus.Subscription, error) {
	return s.Subscribe(bus.KindAll, m.Observe)
}

// Observe updates the collectors for one event.
func (m *Metrics) Observe(ev bus.Event) {
	switch ev.Kind {
	case bus.KindUsage:
		var u bus.Usage
		if err := ev.Decode(&u); err != nil {
			log.Warn("bad usage event %s: %v", ev.ID, err)
			return
		}
		m.toolCalls.WithLabelValues(u.PluginName, u.FunctionName).Inc()

	case bus.KindConsent:
		var d bus.ConsentDecision
		if err := ev.Decode(&d); err != nil {
			log.Warn("bad consent event %s: %v", ev.ID, err)
			return
		}
		decision := "denied"
		if d.Approved {
			decision = "approved"
		}
		m.consent.WithLabelValues(decision).Inc()

	case bus.KindError:
		m.errors.Inc()

	case bus.KindDesktop:
		var c bus.DesktopChanged
		if err := ev.Decode(&c); err != nil {
			log.Warn("bad desktop event %s: %v", ev.ID, err)
			return
		}
		m.desktopChanges.Inc()
		m.changedPaths.Add(float64(len(c.Paths)))
	}
}
