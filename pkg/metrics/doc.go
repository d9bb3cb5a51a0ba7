/*
Package metrics provides Prometheus metrics and the workload health status
for hacluster.

# Metrics

All collectors are package-level variables registered against the default
registry in init():

  - hacluster_convergence_duration_seconds: one observation per pass
  - hacluster_convergence_passes_total{result}: ok, blocked, skipped
  - hacluster_phase_duration_seconds{phase}: per convergence phase
  - hacluster_crm_commands_total{verb,status}: mutating crm commands
  - hacluster_is_leader: whether the last pass ran as leader
  - hacluster_daemon_restart_attempts_total
  - hacluster_readiness_probes_total{result}
  - hacluster_dns_addresses_migrated_total

Each hook invocation is a short-lived process, so nothing listens for
scrapes. Instead the CLI dumps the registry with WriteTextfile into a
directory watched by node_exporter's textfile collector:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ConvergenceDuration)
	...
	_ = metrics.WriteTextfile("/var/lib/node_exporter/hacluster.prom")

# Health

The health registry tracks the corosync and pacemaker daemons and the last
convergence pass. GetHealth folds them into a single status whose message is
what the operator sees when a pass is blocked; GetReadiness only considers
the two daemons.
*/
package metrics
