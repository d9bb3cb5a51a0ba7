package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cuemby/hacluster/pkg/config"
	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/types"
)

// Cluster is the part of the cluster manager client the remote manager
// drives
type Cluster interface {
	ObjectExists(ctx context.Context, name string) (bool, error)
	Commit(ctx context.Context, cmd string) error
	Property(ctx context.Context, name string) (string, error)
	SetProperty(ctx context.Context, name, value string) error
	ListNodes(ctx context.Context) ([]string, error)
	RemoteResources(ctx context.Context) ([]string, error)
	Cleanup(ctx context.Context, name string) error
	ResourceMeta(ctx context.Context, resource, key string) (string, error)
	SetResourceMeta(ctx context.Context, resource, key, value string) error
}

// Manager enrolls remote nodes, their fencing resources and keeps ordinary
// resources on the local nodes
type Manager struct {
	cluster Cluster
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewManager creates a remote node manager
func NewManager(cluster Cluster, cfg *config.Config) *Manager {
	return &Manager{
		cluster: cluster,
		cfg:     cfg,
		logger:  log.WithComponent("remote"),
	}
}

// ShortName strips the domain: node1.maas -> node1
func ShortName(host string) string {
	short, _, _ := strings.Cut(host, ".")
	return short
}

// StonithName is the fencing resource of a remote node
func StonithName(host string) string {
	return "st-" + ShortName(host)
}

// LocationName is the constraint pinning res to a local node
func LocationName(res, node string) string {
	return fmt.Sprintf("loc-%s-%s", res, node)
}

// EnsureRemote creates the connection resource for a remote node and
// returns its name
func (m *Manager) EnsureRemote(ctx context.Context, host string) (string, error) {
	name := ShortName(host)
	exists, err := m.cluster.ObjectExists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		return name, nil
	}

	cmd := fmt.Sprintf("crm configure primitive %s %s params server=%s reconnect_interval=60 op monitor interval=30s",
		name, types.AgentPacemakerRemote, host)
	if err := m.cluster.Commit(ctx, cmd); err != nil {
		return "", fmt.Errorf("failed to create remote node %s: %w", name, err)
	}
	m.logger.Info().Str("remote", name).Str("server", host).Msg("Remote node enrolled")
	return name, nil
}

// EnsureStonith creates the MAAS fencing resource of a remote node and
// enables fencing cluster-wide when it does
func (m *Manager) EnsureStonith(ctx context.Context, host string) (string, error) {
	if err := m.cfg.RequireMAASURL(); err != nil {
		return "", err
	}

	name := StonithName(host)
	exists, err := m.cluster.ObjectExists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		return name, nil
	}

	cmd := fmt.Sprintf("crm configure primitive %s %s params url='%s' apikey='%s' hostnames=%s op monitor interval=25 start-delay=25 timeout=25",
		name, types.AgentMAASStonith, m.cfg.MAASURL, m.cfg.MAASCredentials, ShortName(host))
	if err := m.cluster.Commit(ctx, cmd); err != nil {
		return "", fmt.Errorf("failed to create stonith resource %s: %w", name, err)
	}
	if err := m.cluster.SetProperty(ctx, "stonith-enabled", "true"); err != nil {
		return "", err
	}
	m.logger.Info().Str("stonith", name).Msg("Fencing resource created")
	return name, nil
}

// PinToLocalNodes adds a score 0 location preference of res for every
// local member node
func (m *Manager) PinToLocalNodes(ctx context.Context, res string) error {
	nodes, err := m.cluster.ListNodes(ctx)
	if err != nil {
		return err
	}
	return m.pin(ctx, res, nodes)
}

func (m *Manager) pin(ctx context.Context, res string, nodes []string) error {
	for _, node := range nodes {
		name := LocationName(res, node)
		exists, err := m.cluster.ObjectExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		cmd := fmt.Sprintf("crm -w -F configure location %s %s 0: %s", name, res, node)
		if err := m.cluster.Commit(ctx, cmd); err != nil {
			return fmt.Errorf("failed to pin %s to %s: %w", res, node, err)
		}
	}
	return nil
}

// Configure reconciles remote nodes, fencing, symmetry and placement for
// the advertised peers
func (m *Manager) Configure(ctx context.Context, peers []types.RemotePeer, desired *types.DesiredState) error {
	nodes, err := m.cluster.ListNodes(ctx)
	if err != nil {
		return err
	}

	advertised := map[string]bool{}
	for _, peer := range peers {
		if peer.RemoteHostname != "" {
			name, err := m.EnsureRemote(ctx, peer.RemoteHostname)
			if err != nil {
				return err
			}
			advertised[name] = true
			if err := m.pin(ctx, name, nodes); err != nil {
				return err
			}
		}

		// a peer may ask to be fenced without running pacemaker_remote
		if peer.StonithHostname != "" {
			if _, err := m.EnsureStonith(ctx, peer.StonithHostname); err != nil {
				return err
			}
		}
	}

	if err := m.cleanupStale(ctx, advertised); err != nil {
		return err
	}

	targeting := Answer(peers)
	if err := m.ApplySymmetry(ctx, targeting); err != nil {
		return err
	}

	if len(peers) == 0 || targeting == Ambiguous {
		return nil
	}
	return m.placement(ctx, desired, nodes, targeting)
}

// cleanupStale clears remote connection resources no peer advertises any
// more. They are not deleted while a migration may still be in flight.
func (m *Manager) cleanupStale(ctx context.Context, advertised map[string]bool) error {
	existing, err := m.cluster.RemoteResources(ctx)
	if err != nil {
		return err
	}
	for _, name := range existing {
		if advertised[name] {
			continue
		}
		m.logger.Info().Str("remote", name).Msg("Remote node no longer advertised")
		if err := m.cluster.Cleanup(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) placement(ctx context.Context, desired *types.DesiredState, nodes []string, targeting Targeting) error {
	wrapped := desired.Wrapped()

	var pinned []string
	for _, name := range types.SortedNames(desired.Resources) {
		if wrapped[name] || desired.Resources[name] == types.AgentPacemakerRemote {
			continue
		}
		pinned = append(pinned, name)
	}
	pinned = append(pinned, types.SortedNames(desired.Groups)...)
	pinned = append(pinned, types.SortedNames(desired.Clones)...)

	for _, res := range pinned {
		if err := m.pin(ctx, res, nodes); err != nil {
			return err
		}
	}

	if targeting != NotTargeted {
		return nil
	}
	count := strconv.Itoa(len(nodes))
	for _, clone := range types.SortedNames(desired.Clones) {
		current, err := m.cluster.ResourceMeta(ctx, clone, "clone-max")
		if err == nil && current == count {
			continue
		}
		if err := m.cluster.SetResourceMeta(ctx, clone, "clone-max", count); err != nil {
			return fmt.Errorf("failed to set clone-max of %s: %w", clone, err)
		}
	}
	return nil
}
