package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cuemby/hacluster/pkg/codec"
	"github.com/cuemby/hacluster/pkg/config"
	"github.com/cuemby/hacluster/pkg/crm"
	"github.com/cuemby/hacluster/pkg/daemon"
	"github.com/cuemby/hacluster/pkg/dns"
	"github.com/cuemby/hacluster/pkg/health"
	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/metrics"
	"github.com/cuemby/hacluster/pkg/relation"
	"github.com/cuemby/hacluster/pkg/remote"
	"github.com/cuemby/hacluster/pkg/types"
)

var errUnhealthy = errors.New("unit is unhealthy")

var statusCmd = &cobra.Command{
	Use:   "status [--relations FILE]",
	Short: "Probe the cluster daemons, remote nodes and DNS records",
	Long: `Probe the local cluster daemons and membership, the MAAS API, and,
when relation data is given, every remote node and MAAS DNS record. The
result is printed as JSON; the exit code is non-zero when any probe failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("relations")

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		probes := localProbes(e.runner, e.hostname, cfg)
		if path != "" {
			bundle, err := relation.LoadBundle(path)
			if err != nil {
				return err
			}
			more, err := relationProbes(bundle, e.gate, dns.DefaultResolvConf, cfg.PreferIPv6)
			if err != nil {
				return err
			}
			probes = append(probes, more...)
		}

		recordReports(health.RunAll(cmd.Context(), probes))
		if err := metrics.WriteHealth(cmd.OutOrStdout()); err != nil {
			return err
		}
		if metrics.GetHealth().Status != "healthy" {
			return errUnhealthy
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("relations", "", "Relation data (YAML)")
}

func localProbes(runner crm.Runner, hostname string, c *config.Config) []health.Probe {
	probes := []health.Probe{
		{Component: metrics.ComponentCorosync, Checker: health.NewServiceChecker(runner, daemon.Corosync)},
		{Component: metrics.ComponentPacemaker, Checker: health.NewServiceChecker(runner, daemon.Pacemaker)},
		{Component: "membership", Checker: health.NewMembershipChecker(runner, hostname)},
	}
	if c.MAASURL != "" {
		probes = append(probes, health.Probe{Component: "maas", Checker: health.NewHTTPChecker(c.MAASURL)})
	}
	return probes
}

// addressBook returns the stored address of a DNS resource
type addressBook interface {
	Address(name string) (string, error)
}

// relationProbes builds the remote node and DNS record probes. With
// preferIPv6 remote nodes are reached over IPv6 only.
func relationProbes(b *relation.Bundle, addresses addressBook, resolvConf string, preferIPv6 bool) ([]health.Probe, error) {
	network := "tcp"
	if preferIPv6 {
		network = "tcp6"
	}

	var probes []health.Probe

	for _, peer := range codec.DecodeRemotePeers(b.Relation(relation.PacemakerRemote)) {
		if peer.RemoteHostname == "" {
			continue
		}
		probes = append(probes, health.Probe{
			Component: "remote/" + remote.ShortName(peer.RemoteHostname),
			Checker:   health.NewRemoteNodeChecker(peer.RemoteHostname).WithNetwork(network),
		})
	}

	principal, unit, ok := b.Principal()
	if !ok {
		return probes, nil
	}
	desired, err := codec.DecodeDesiredState(relation.UnitGetter(principal, unit))
	if err != nil {
		return nil, err
	}
	resources := dns.Resources(desired)
	if len(resources) == 0 {
		return probes, nil
	}

	servers, err := dns.SystemNameservers(resolvConf)
	if err != nil {
		return nil, err
	}
	for _, name := range types.SortedNames(resources) {
		fqdn := dns.FQDNFromParams(resources[name])
		ip, err := addresses.Address(name)
		if err != nil || ip == "" {
			ip = dns.IPFromParams(resources[name])
		}
		if fqdn == "" || ip == "" {
			continue
		}
		probes = append(probes, health.Probe{
			Component: "dns/" + name,
			Checker:   dns.NewRecordChecker(fqdn, ip, servers),
		})
	}
	return probes, nil
}

// recordReports folds probe reports into the health registry. A component
// with several probes is healthy only when all of them pass.
func recordReports(reports []health.Report) {
	logger := log.WithComponent("status")
	failed := map[string]bool{}
	for _, r := range reports {
		if failed[r.Component] {
			continue
		}
		if !r.Result.Healthy {
			failed[r.Component] = true
			logger.Warn().Str("probe", string(r.Type)).Str("component", r.Component).Msg(r.Result.Message)
		}
		metrics.UpdateComponent(r.Component, r.Result.Healthy, r.Result.Message)
	}
}
