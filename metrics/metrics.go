package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the controller's metrics on a private prometheus registry
// so independent controller instances do not collide.
type Registry struct {
	EventsTotal     *prometheus.CounterVec
	PacketInTotal   *prometheus.CounterVec
	CommandsTotal   *prometheus.CounterVec
	SendErrorsTotal *prometheus.CounterVec
	TopologyNodes   prometheus.Gauge
	TopologyLinks   prometheus.Gauge
	PathHops        prometheus.Histogram

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewHostCollector(),
	)
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "controller_events_total",
				Help: "Inbound events handled, by event type",
			},
			[]string{"type"},
		),
		PacketInTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "controller_packet_in_total",
				Help: "Packet-in events by decision outcome",
			},
			[]string{"outcome"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "controller_commands_total",
				Help: "Commands handed to the southbound side, by type",
			},
			[]string{"type"},
		),
		SendErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "controller_send_errors_total",
				Help: "Commands the southbound side refused, by type",
			},
			[]string{"type"},
		),
		TopologyNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "controller_topology_nodes",
				Help: "Switches and hosts in the topology graph",
			},
		),
		TopologyLinks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "controller_topology_links",
				Help: "Directed edges in the topology graph",
			},
		),
		PathHops: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "controller_path_hops",
				Help:    "Switch hops of installed paths",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Registry) RecordEvent(eventType string) {
	r.EventsTotal.WithLabelValues(eventType).Inc()
}

func (r *Registry) RecordPacketIn(outcome string) {
	r.PacketInTotal.WithLabelValues(outcome).Inc()
}

func (r *Registry) RecordCommand(cmdType string, err error) {
	r.CommandsTotal.WithLabelValues(cmdType).Inc()
	if err != nil {
		r.SendErrorsTotal.WithLabelValues(cmdType).Inc()
	}
}

func (r *Registry) SetTopology(nodes, links int) {
	r.TopologyNodes.Set(float64(nodes))
	r.TopologyLinks.Set(float64(links))
}

func (r *Registry) ObservePath(hops int) {
	r.PathHops.Observe(float64(hops))
}
