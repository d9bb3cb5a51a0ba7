/*
Package health provides the probes behind "hacluster status".

Three checker kinds share one interface:

	┌──────────────────────────────────────────┐
	│             Checker Interface            │
	│  • Check(ctx) Result                     │
	│  • Type() CheckType                      │
	└────┬──────────────┬──────────────┬───────┘
	     ▼              ▼              ▼
	┌─────────┐    ┌─────────┐    ┌─────────┐
	│ Command │    │   TCP   │    │  HTTP   │
	└─────────┘    └─────────┘    └─────────┘
	 systemctl      remote node    MAAS API
	 crm node list  port 3121

A fourth kind, the MAAS DNS record check, lives in package dns next to
the addresses it verifies; its Type is CheckTypeDNS.

CommandChecker runs through the same Runner the cluster manager client uses,
so it is scripted in tests with crmtest. A Probe names the component a
checker reports on; RunAll evaluates a list of probes in order and the
caller feeds the reports into the metrics health registry.

# Usage

	probes := []health.Probe{
		{Component: metrics.ComponentCorosync, Checker: health.NewServiceChecker(runner, "corosync")},
		{Component: metrics.ComponentPacemaker, Checker: health.NewMembershipChecker(runner, hostname)},
		{Component: "remote/node1", Checker: health.NewRemoteNodeChecker("node1.maas")},
		{Component: "maas", Checker: health.NewHTTPChecker(cfg.MAASURL)},
	}
	for _, r := range health.RunAll(ctx, probes) {
		metrics.UpdateComponent(r.Component, r.Result.Healthy, r.Result.Message)
	}
*/
package health
