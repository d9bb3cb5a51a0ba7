package reconciler

import (
	"context"
	"fmt"
	"maps"

	"github.com/cuemby/hacluster/pkg/dns"
	"github.com/cuemby/hacluster/pkg/types"
)

// preflight runs on every unit before anything is changed. Incomplete
// configuration is reported here so a pass never applies half of a
// feature. The returned state carries the MAAS access parameters of DNS
// resources; desired itself is not modified.
func (p *pass) preflight(ctx context.Context, desired *types.DesiredState) (*types.DesiredState, error) {
	for _, peer := range p.pc.Peers {
		if peer.StonithHostname == "" {
			continue
		}
		if err := p.cfg.RequireMAASURL(); err != nil {
			return nil, err
		}
		break
	}

	if desired.HasAgentPrefix(types.AgentMAASPrefix) {
		if err := p.cfg.RequireMAAS(); err != nil {
			return nil, err
		}
		var err error
		if desired, err = p.withDNSAccess(desired); err != nil {
			return nil, err
		}
	}

	if err := p.daemons.WaitForReady(ctx, p.cfg.ReadyRetries, p.cfg.ReadyInterval); err != nil {
		return nil, &BlockedError{Message: "Pacemaker is down", Err: err}
	}
	return desired, nil
}

// withDNSAccess appends the MAAS endpoint to every DNS resource and stores
// the address the resource agent publishes
func (p *pass) withDNSAccess(desired *types.DesiredState) (*types.DesiredState, error) {
	out := *desired
	out.ResourceParams = maps.Clone(desired.ResourceParams)

	resources := dns.Resources(desired)
	for _, name := range types.SortedNames(resources) {
		params := resources[name]
		ip := dns.IPFromParams(params)

		out.ResourceParams[name] = fmt.Sprintf(`%s maas_url="%s" maas_credentials="%s"`,
			params, p.cfg.MAASURL, p.cfg.MAASCredentials)

		if ip == "" {
			p.logger.Warn().Str("resource", name).Msg("DNS resource has no ip_address")
			continue
		}
		if err := p.dns.WriteAddress(name, ip); err != nil {
			return nil, fmt.Errorf("failed to store address of %s: %w", name, err)
		}
	}
	return &out, nil
}
