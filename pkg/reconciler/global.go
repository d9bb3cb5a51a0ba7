package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cuemby/hacluster/pkg/crm"
)

const (
	maintenanceKey = "maintenance-mode"
	pingResource   = "ping"
	pingClone      = "cl_ping"
)

func (p *pass) configureGlobal(ctx context.Context) error {
	if err := p.ensureProperty(ctx, "no-quorum-policy", p.cfg.NoQuorumPolicy()); err != nil {
		return err
	}
	if err := p.configureMonitorHost(ctx); err != nil {
		return err
	}
	return p.applyMaintenance(ctx)
}

// ensureProperty writes a cluster property unless it already holds value.
// A property that cannot be read is written.
func (p *pass) ensureProperty(ctx context.Context, name, value string) error {
	current, err := p.cluster.Property(ctx, name)
	switch {
	case err == nil && current == value:
		return nil
	case err != nil && !errors.Is(err, crm.ErrPropertyNotFound):
		p.logger.Debug().Err(err).Str("property", name).Msg("Property unreadable")
	}
	return p.cluster.SetProperty(ctx, name, value)
}

// configureMonitorHost keeps the ping resource and its clone in line with
// the configured monitor host. Resources carry a Ping-<name> location rule
// against it, see configurePrimitives.
func (p *pass) configureMonitorHost(ctx context.Context) error {
	exists, err := p.cluster.ObjectExists(ctx, pingResource)
	if err != nil {
		return err
	}

	host := p.cfg.MonitorHost
	if host == "" {
		if !exists {
			return nil
		}
		if err := p.commit(ctx, "stop ping", "crm -w -F resource stop "+pingResource); err != nil {
			return err
		}
		return p.commit(ctx, "delete ping", "crm -w -F configure delete "+pingResource)
	}

	if !exists {
		cmd := fmt.Sprintf(`crm -w -F configure primitive %s ocf:pacemaker:ping params host_list="%s" multiplier="100" op monitor interval="%s"`,
			pingResource, host, p.cfg.MonitorInterval)
		if err := p.commit(ctx, "create ping", cmd); err != nil {
			return err
		}
		return p.commit(ctx, "clone ping",
			fmt.Sprintf(`crm -w -F configure clone %s %s meta interleave="true"`, pingClone, pingResource))
	}

	if current, err := p.cluster.ResourceParam(ctx, pingResource, "host_list"); err == nil && current == host {
		return nil
	}
	return p.commit(ctx, "update ping host",
		fmt.Sprintf(`crm -w -F resource param %s set host_list="%s"`, pingResource, host))
}

// applyMaintenance toggles maintenance-mode when the configured value
// changed since the last pass that applied it
func (p *pass) applyMaintenance(ctx context.Context) error {
	want := strconv.FormatBool(p.cfg.MaintenanceMode)

	previous, ok, err := p.store.PreviousValue(maintenanceKey)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read previous maintenance mode")
	}
	if ok && previous == want {
		return nil
	}

	if err := SetMaintenance(ctx, p.cluster, p.cfg.MaintenanceMode); err != nil {
		return err
	}
	if err := p.store.SetPreviousValue(maintenanceKey, want); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to record maintenance mode")
	}
	return nil
}

// PropertyStore reads and writes cluster properties
type PropertyStore interface {
	Property(ctx context.Context, name string) (string, error)
	SetProperty(ctx context.Context, name, value string) error
}

// SetMaintenance puts the cluster in or out of maintenance mode. Nothing is
// written when the cluster is already in the requested mode.
func SetMaintenance(ctx context.Context, props PropertyStore, enable bool) error {
	want := strconv.FormatBool(enable)
	if current, err := props.Property(ctx, maintenanceKey); err == nil && current == want {
		return nil
	}
	return props.SetProperty(ctx, maintenanceKey, want)
}

func pingRuleName(name string) string {
	return "Ping-" + name
}

// pingRule is the location constraint keeping name off nodes that lost
// sight of the monitor host
func pingRule(name string) string {
	return fmt.Sprintf("crm -F configure location %s %s rule -inf: pingd lte 0", pingRuleName(name), name)
}
