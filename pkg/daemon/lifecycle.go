package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/metrics"
)

// ErrServicesNotUp is returned when corosync/pacemaker cannot be brought up
// or the local node never joins the membership
var ErrServicesNotUp = errors.New("cluster services not up")

// Membership answers whether a node is listed by the cluster manager
type Membership interface {
	HasNode(ctx context.Context, hostname string) bool
}

// Lifecycle restarts and validates the cluster daemons
type Lifecycle struct {
	services ServiceManager
	members  Membership
	hostname string
	logger   zerolog.Logger
}

// NewLifecycle creates a lifecycle manager for the local node
func NewLifecycle(services ServiceManager, members Membership, hostname string) *Lifecycle {
	return &Lifecycle{
		services: services,
		members:  members,
		hostname: hostname,
		logger:   log.WithComponent("daemon"),
	}
}

// RestartDaemons restarts corosync and pacemaker in dependency order and
// reports whether both run afterwards. Nothing is stopped unless corosync
// was running.
func (l *Lifecycle) RestartDaemons(ctx context.Context) (bool, error) {
	metrics.RestartAttemptsTotal.Inc()

	if l.services.Running(ctx, Corosync) {
		if l.services.Running(ctx, Pacemaker) {
			if err := l.services.Stop(ctx, Pacemaker); err != nil {
				return false, err
			}
		}
		if err := l.services.Stop(ctx, Corosync); err != nil {
			return false, err
		}
	}

	if err := l.services.Start(ctx, Corosync); err != nil {
		return false, err
	}
	if err := l.services.Start(ctx, Pacemaker); err != nil {
		return false, err
	}

	corosync := l.services.Running(ctx, Corosync)
	pacemaker := l.services.Running(ctx, Pacemaker)
	metrics.UpdateComponent(metrics.ComponentCorosync, corosync, runningMessage(Corosync, corosync))
	metrics.UpdateComponent(metrics.ComponentPacemaker, pacemaker, runningMessage(Pacemaker, pacemaker))

	return corosync && pacemaker, nil
}

// ValidatedRestart restarts the daemons until both run, at most maxRetries
// times
func (l *Lifecycle) ValidatedRestart(ctx context.Context, maxRetries int) error {
	attempt := 0
	err := retry(ctx, maxRetries, 0, func() error {
		attempt++
		l.logger.Info().Int("attempt", attempt).Msg("Restarting corosync and pacemaker")

		ok, err := l.RestartDaemons(ctx)
		if err != nil {
			l.logger.Warn().Err(err).Int("attempt", attempt).Msg("Restart failed")
			return err
		}
		if !ok {
			return fmt.Errorf("services not running after restart")
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: restart failed %d times: %v", ErrServicesNotUp, attempt, err)
	}

	l.logger.Info().Int("attempts", attempt).Msg("Corosync and pacemaker running")
	return nil
}

// WaitForReady polls the membership until the local node is listed
func (l *Lifecycle) WaitForReady(ctx context.Context, maxRetries int, sleep time.Duration) error {
	err := retry(ctx, maxRetries, sleep, func() error {
		if l.members.HasNode(ctx, l.hostname) {
			metrics.ReadinessProbesTotal.WithLabelValues("ready").Inc()
			return nil
		}
		metrics.ReadinessProbesTotal.WithLabelValues("not_ready").Inc()
		l.logger.Debug().Str("hostname", l.hostname).Msg("Node not listed yet")
		return fmt.Errorf("%s not listed", l.hostname)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.UpdateComponent(metrics.ComponentPacemaker, false, "node not in membership")
		return fmt.Errorf("%w: %s not in membership after %d attempts", ErrServicesNotUp, l.hostname, maxRetries)
	}
	metrics.UpdateComponent(metrics.ComponentPacemaker, true, "node in membership")
	return nil
}

// DisableService stops a service that the cluster now manages and keeps
// the init system from starting it at boot
func (l *Lifecycle) DisableService(ctx context.Context, service string) error {
	if l.services.Running(ctx, service) {
		if err := l.services.Stop(ctx, service); err != nil {
			return err
		}
	}
	if err := l.services.Disable(ctx, service); err != nil {
		return err
	}
	l.logger.Info().Str("service", service).Msg("Service handed over to the cluster")
	return nil
}

// EnableService makes the init system start service at boot
func (l *Lifecycle) EnableService(ctx context.Context, service string) error {
	if err := l.services.Enable(ctx, service); err != nil {
		return err
	}
	l.logger.Debug().Str("service", service).Msg("Service enabled")
	return nil
}

func runningMessage(service string, running bool) string {
	if running {
		return service + " running"
	}
	return service + " not running"
}
