package spy

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nfrund/netspy/internal/discovery"
)

// Metrics counts what discovery has seen. It uses its own prometheus
// registry so several tools can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	EndpointsDiscovered *prometheus.CounterVec
	EndpointsDropped    prometheus.Counter
	TopicConflicts      prometheus.Counter
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	Topics    int
	Writers   int
	Readers   int
	Dropped   int
	Conflicts int
}

// NewMetrics creates and registers the discovery metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EndpointsDiscovered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "netspy",
				Subsystem: "discovery",
				Name:      "endpoints_total",
				Help:      "Total number of endpoints discovered",
			},
			[]string{"kind"},
		),

		EndpointsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netspy",
			Subsystem: "discovery",
			Name:      "endpoints_dropped_total",
			Help:      "Endpoints whose topic could not be recorded",
		}),

		TopicConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netspy",
			Subsystem: "discovery",
			Name:      "topic_conflicts_total",
			Help:      "Topics rediscovered with a different type name",
		}),
	}
	m.registry.MustRegister(m.EndpointsDiscovered, m.EndpointsDropped, m.TopicConflicts)
	return m
}

// TrackTopics exports count as the number of known topics.
func (m *Metrics) TrackTopics(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "netspy",
			Subsystem: "discovery",
			Name:      "topics",
			Help:      "Number of topics in the registry",
		},
		func() float64 { return float64(count()) },
	))
}

// Registry exposes the underlying prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OnEndpointDiscovered counts e by kind.
func (m *Metrics) OnEndpointDiscovered(e discovery.Endpoint) {
	m.EndpointsDiscovered.WithLabelValues(e.Kind.String()).Inc()
}

// Snapshot gathers the current values.
func (m *Metrics) Snapshot() (Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			switch family.GetName() {
			case "netspy_discovery_topics":
				s.Topics = int(metric.GetGauge().GetValue())
			case "netspy_discovery_endpoints_dropped_total":
				s.Dropped = int(metric.GetCounter().GetValue())
			case "netspy_discovery_topic_conflicts_total":
				s.Conflicts = int(metric.GetCounter().GetValue())
			case "netspy_discovery_endpoints_total":
				for _, label := range metric.GetLabel() {
					if label.GetName() != "kind" {
						continue
					}
					switch label.GetValue() {
					case discovery.KindWriter.String():
						s.Writers = int(metric.GetCounter().GetValue())
					case discovery.KindReader.String():
						s.Readers = int(metric.GetCounter().GetValue())
					}
				}
			}
		}
	}
	return s, nil
}
