package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Convergence metrics
	ConvergenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hacluster_convergence_duration_seconds",
			Help:    "Time taken by one convergence pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ConvergencePassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacluster_convergence_passes_total",
			Help: "Total number of convergence passes by result",
		},
		[]string{"result"},
	)

	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hacluster_phase_duration_seconds",
			Help:    "Duration of each convergence phase in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	// Cluster manager metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacluster_crm_commands_total",
			Help: "Total number of mutating cluster manager commands by verb and status",
		},
		[]string{"verb", "status"},
	)

	IsLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hacluster_is_leader",
			Help: "Whether this unit ran the last pass as leader (1 = leader, 0 = follower)",
		},
	)

	// Daemon lifecycle metrics
	RestartAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hacluster_daemon_restart_attempts_total",
			Help: "Total number of corosync/pacemaker restart attempts",
		},
	)

	ReadinessProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hacluster_readiness_probes_total",
			Help: "Total number of membership readiness probes by result",
		},
		[]string{"result"},
	)

	// DNS migration metrics
	DNSAddressesMigrated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hacluster_dns_addresses_migrated_total",
			Help: "Total number of DNS resource addresses written to disk",
		},
	)
)

func init() {
	prometheus.MustRegister(ConvergenceDuration)
	prometheus.MustRegister(ConvergencePassesTotal)
	prometheus.MustRegister(PhaseDuration)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(IsLeader)
	prometheus.MustRegister(RestartAttemptsTotal)
	prometheus.MustRegister(ReadinessProbesTotal)
	prometheus.MustRegister(DNSAddressesMigrated)
}

// WriteTextfile dumps the default registry in the text exposition format
// for node_exporter's textfile collector. The hook process is too short-lived
// to be scraped directly.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
