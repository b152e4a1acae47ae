package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

const namespace = "roomwatch"

var serverLabels = []string{"server", "port"}

func labels(addr domain.ServerAddress) prometheus.Labels {
	return prometheus.Labels{"server": addr.MetricKey(), "port": strconv.Itoa(int(addr.Port))}
}

// Metrics holds every Prometheus metric exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	// Per server, labelled by the normalized host and the port. Two servers
	// sharing a host keep separate series.
	TotalPlayers    *prometheus.GaugeVec
	PacketsDecoded  *prometheus.CounterVec
	PacketsRejected *prometheus.CounterVec
	SessionFailures *prometheus.CounterVec
}

// New creates the metrics on a dedicated registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TotalPlayers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_players",
			Help:      "Total players connected on this server",
		}, serverLabels),
		PacketsDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_decoded_total",
			Help:      "Room status packets decoded",
		}, serverLabels),
		PacketsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_rejected_total",
			Help:      "Packets ignored because they were short or not room status messages",
		}, serverLabels),
		SessionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Connection failures by phase (connect or service)",
		}, append(serverLabels, "phase")),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddServer creates the series of addr and zeroes its player gauge.
func (m *Metrics) AddServer(addr domain.ServerAddress) {
	l := labels(addr)
	m.TotalPlayers.With(l).Set(0)
	m.PacketsDecoded.With(l)
	m.PacketsRejected.With(l)
}

// SetPlayers sets the player gauge of addr
func (m *Metrics) SetPlayers(addr domain.ServerAddress, n int) {
	m.TotalPlayers.With(labels(addr)).Set(float64(n))
}

func (m *Metrics) RecordDecoded(addr domain.ServerAddress) {
	m.PacketsDecoded.With(labels(addr)).Inc()
}

func (m *Metrics) RecordRejected(addr domain.ServerAddress) {
	m.PacketsRejected.With(labels(addr)).Inc()
}

func (m *Metrics) RecordFailure(addr domain.ServerAddress, phase string) {
	l := labels(addr)
	l["phase"] = phase
	m.SessionFailures.With(l).Inc()
}

// Nop discards everything. Used when metrics are disabled.
type Nop struct{}

func (Nop) AddServer(domain.ServerAddress)             {}
func (Nop) SetPlayers(domain.ServerAddress, int)       {}
func (Nop) RecordDecoded(domain.ServerAddress)         {}
func (Nop) RecordRejected(domain.ServerAddress)        {}
func (Nop) RecordFailure(domain.ServerAddress, string) {}
