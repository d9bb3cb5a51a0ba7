package dns

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/cuemby/hacluster/pkg/crm"
	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/metrics"
	"github.com/cuemby/hacluster/pkg/storage"
	"github.com/cuemby/hacluster/pkg/types"
)

// MigrationName is the store key recording a completed migration
const MigrationName = "maas-dns"

// Gate moves DNS resource addresses out of the cluster configuration into
// per-resource files the resource agent reads
type Gate struct {
	fs      afero.Fs
	runner  crm.Runner
	store   storage.Store
	dir     string
	ocfRoot string
	logger  zerolog.Logger
}

// NewGate creates a DNS migration gate. dir is where address files live,
// ocfRoot the OCF resource agent root.
func NewGate(fs afero.Fs, runner crm.Runner, store storage.Store, dir, ocfRoot string) *Gate {
	return &Gate{
		fs:      fs,
		runner:  runner,
		store:   store,
		dir:     dir,
		ocfRoot: ocfRoot,
		logger:  log.WithComponent("dns"),
	}
}

// agentPath is the installed MAAS DNS resource agent
func (g *Gate) agentPath() string {
	return filepath.Join(g.ocfRoot, "maas", "dns")
}

// NeedsMigration reports whether the installed agent still reads the
// address from its parameters and the migration has not run yet
func (g *Gate) NeedsMigration(ctx context.Context) bool {
	if _, err := g.store.GetMigration(MigrationName); err == nil {
		return false
	} else if !errors.Is(err, storage.ErrNotFound) {
		g.logger.Warn().Err(err).Msg("Failed to read migration state")
	}

	_, err := g.runner.Run(ctx, "grep", "-q", "ip_address", g.agentPath())
	return err == nil
}

// Migrate writes the address file of every DNS resource in states and
// records the migration as done. It returns the number of files written.
func (g *Gate) Migrate(ctx context.Context, states []*types.DesiredState) (int, error) {
	if !g.NeedsMigration(ctx) {
		g.logger.Info().Msg("MAAS DNS migration is not necessary")
		return 0, nil
	}

	written := 0
	for _, ds := range states {
		resources := Resources(ds)
		for _, name := range types.SortedNames(resources) {
			ip := IPFromParams(resources[name])
			if ip == "" {
				g.logger.Warn().Str("resource", name).Msg("DNS resource has no ip_address")
				continue
			}
			g.logger.Info().Str("resource", name).Msg("Migrating MAAS DNS resource")
			changed, err := g.write(name, ip)
			if err != nil {
				return written, err
			}
			if changed {
				written++
			}
		}
	}

	if err := g.store.MarkMigration(MigrationName); err != nil {
		return written, fmt.Errorf("failed to record DNS migration: %w", err)
	}
	return written, nil
}

// WriteAddress stores the address of a DNS resource
func (g *Gate) WriteAddress(name, ip string) error {
	_, err := g.write(name, ip)
	return err
}

// Address returns the stored address of a DNS resource
func (g *Gate) Address(name string) (string, error) {
	data, err := afero.ReadFile(g.fs, filepath.Join(g.dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// write leaves a file that already holds ip alone
func (g *Gate) write(name, ip string) (bool, error) {
	if current, err := g.Address(name); err == nil && current == ip {
		return false, nil
	}

	if err := g.fs.MkdirAll(g.dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", g.dir, err)
	}
	path := filepath.Join(g.dir, name)
	if err := afero.WriteFile(g.fs, path, []byte(ip), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	metrics.DNSAddressesMigrated.Inc()
	return true, nil
}
