package reconciler

import (
	"context"
	"fmt"

	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/remote"
	"github.com/cuemby/hacluster/pkg/types"
)

// deleteResources removes the delete-set. Names the cluster does not know
// get no command at all.
func (p *pass) deleteResources(ctx context.Context) error {
	for _, name := range p.desired.DeleteResources {
		exists, err := p.cluster.ObjectExists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			p.logger.Debug().Str("resource", name).Msg("Resource already gone")
			continue
		}

		logger := log.WithResource(p.logger, name)
		if p.agentInstalled(name) {
			if p.cluster.ResourceRunning(ctx, name) {
				logger.Info().Msg("Stopping resource before deletion")
				if err := p.commit(ctx, "stop "+name, "crm -w -F resource stop "+name); err != nil {
					return err
				}
			}
		} else {
			// nothing can stop it without its agent
			logger.Info().Msg("Resource agent missing, cleaning up before deletion")
			if err := p.cluster.Cleanup(ctx, name); err != nil {
				return err
			}
		}

		p.killLegacyProcess(ctx, name)

		if err := p.commit(ctx, "delete "+name, "crm -w -F configure delete "+name); err != nil {
			return err
		}
		if err := p.store.DeleteFingerprint(name); err != nil {
			logger.Warn().Err(err).Msg("Failed to forget resource fingerprint")
		}
	}
	return nil
}

// disableServices hands init-managed services over to the cluster. It runs
// on every unit since each one has its own copy of the service.
func (p *pass) disableServices(ctx context.Context) error {
	for _, name := range types.SortedNames(p.desired.Resources) {
		var service string
		if agent := types.ParseAgent(p.desired.Resources[name]); agent.Class == types.ClassLSB {
			service = agent.Type
		} else {
			service = p.desired.InitServices[name]
		}
		if service == "" {
			continue
		}
		if err := p.daemons.DisableService(ctx, service); err != nil {
			p.logger.Warn().Err(err).Str("service", service).Msg("Failed to disable service")
		}
	}
	return nil
}

// configurePrimitives creates missing primitives and updates changed ones.
// A failed update blocks the unit.
func (p *pass) configurePrimitives(ctx context.Context) error {
	for _, name := range types.SortedNames(p.desired.Resources) {
		res := p.desired.Resource(name)
		logger := log.WithResource(p.logger, name)

		exists, err := p.cluster.ObjectExists(ctx, name)
		if err != nil {
			return err
		}

		switch {
		case !exists:
			cmd := fmt.Sprintf("crm -w -F configure primitive %s %s", name, res.Agent)
			if res.Params != "" {
				cmd += " " + res.Params
			}
			if err := p.commit(ctx, "create "+name, cmd); err != nil {
				return err
			}
			p.remember(ctx, res)
		case p.changed(ctx, res):
			if err := p.cluster.UpdateResource(ctx, name, res.Agent, res.Params); err != nil {
				return &BlockedError{Message: "Cannot update pcmkr resource: " + name, Err: err}
			}
			p.remember(ctx, res)
		default:
			logger.Debug().Msg("Resource definition unchanged")
		}

		if p.cfg.MonitorHost != "" {
			if err := p.ensurePingRule(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensurePingRule keeps name off nodes that lost the monitor host
func (p *pass) ensurePingRule(ctx context.Context, name string) error {
	exists, err := p.cluster.ObjectExists(ctx, pingRuleName(name))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.commit(ctx, "add ping rule for "+name, pingRule(name))
}

// configureGrouping creates groups, then master/slave sets, then clones
func (p *pass) configureGrouping(ctx context.Context) error {
	return p.createAll(ctx, []objectKind{
		{"group", p.desired.Groups},
		{"ms", p.desired.MasterSlave},
		{"clone", p.desired.Clones},
	})
}

// configureConstraints creates orders, then colocations, then locations.
// Everything they reference exists by now.
func (p *pass) configureConstraints(ctx context.Context) error {
	return p.createAll(ctx, []objectKind{
		{"order", p.desired.Orders},
		{"colocation", p.desired.Colocations},
		{"location", p.desired.Locations},
	})
}

type objectKind struct {
	keyword string
	objects map[string]string
}

// createAll creates the absent objects of each kind, kind by kind
func (p *pass) createAll(ctx context.Context, kinds []objectKind) error {
	for _, kind := range kinds {
		for _, name := range types.SortedNames(kind.objects) {
			exists, err := p.cluster.ObjectExists(ctx, name)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			cmd := fmt.Sprintf("crm -w -F configure %s %s %s", kind.keyword, name, kind.objects[name])
			if err := p.commit(ctx, "create "+kind.keyword+" "+name, cmd); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pass) configureRemotes(ctx context.Context) error {
	return remote.NewManager(p.cluster, p.cfg).Configure(ctx, p.pc.Peers, p.desired)
}

// cleanupResources makes the cluster re-evaluate resources that may have
// failed to start. Clones and groups are always cleaned up since the state
// of their members is not sampled.
func (p *pass) cleanupResources(ctx context.Context) error {
	wrapped := p.desired.Wrapped()
	for _, name := range types.SortedNames(p.desired.Resources) {
		if wrapped[name] || p.cluster.ResourceRunning(ctx, name) {
			continue
		}
		if err := p.cluster.Cleanup(ctx, name); err != nil {
			return err
		}
	}

	for _, name := range types.SortedNames(p.desired.Clones) {
		if err := p.cluster.Cleanup(ctx, name); err != nil {
			return err
		}
	}
	for _, name := range types.SortedNames(p.desired.Groups) {
		if err := p.cluster.Cleanup(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
