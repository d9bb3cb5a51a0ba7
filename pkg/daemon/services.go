package daemon

import (
	"context"
	"fmt"

	"github.com/cuemby/hacluster/pkg/crm"
)

// Cluster daemons
const (
	Corosync  = "corosync"
	Pacemaker = "pacemaker"
)

// ServiceManager controls init system services
type ServiceManager interface {
	Running(ctx context.Context, service string) bool
	Start(ctx context.Context, service string) error
	Stop(ctx context.Context, service string) error
	Enable(ctx context.Context, service string) error
	Disable(ctx context.Context, service string) error
}

var SystemctlCommand = "systemctl"

// Systemd manages services through systemctl
type Systemd struct {
	runner crm.Runner
}

var _ ServiceManager = (*Systemd)(nil)

// NewSystemd creates a systemd service manager
func NewSystemd(runner crm.Runner) *Systemd {
	return &Systemd{runner: runner}
}

// Running reports whether the unit is active
func (s *Systemd) Running(ctx context.Context, service string) bool {
	_, err := s.runner.Run(ctx, SystemctlCommand, "is-active", "--quiet", service)
	return err == nil
}

func (s *Systemd) Start(ctx context.Context, service string) error {
	return s.systemctl(ctx, "start", service)
}

func (s *Systemd) Stop(ctx context.Context, service string) error {
	return s.systemctl(ctx, "stop", service)
}

func (s *Systemd) Enable(ctx context.Context, service string) error {
	return s.systemctl(ctx, "enable", service)
}

func (s *Systemd) Disable(ctx context.Context, service string) error {
	return s.systemctl(ctx, "disable", service)
}

func (s *Systemd) systemctl(ctx context.Context, verb, service string) error {
	if _, err := s.runner.Run(ctx, SystemctlCommand, verb, service); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, service, err)
	}
	return nil
}
