package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/hacluster/pkg/codec"
	"github.com/cuemby/hacluster/pkg/config"
	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/reconciler"
	"github.com/cuemby/hacluster/pkg/relation"
	"github.com/cuemby/hacluster/pkg/types"
)

var convergeCmd = &cobra.Command{
	Use:   "converge --relations FILE",
	Short: "Run one convergence pass",
	Long: `Run one convergence pass against the relation data in FILE.

The settings this unit publishes back to its relations are printed to
standard output as YAML, keyed by relation name.

Examples:
  # Leader pass
  hacluster converge --relations relations.yaml --leader

  # Follower pass: disable local services and wait for membership
  hacluster converge --relations relations.yaml`,
	RunE: runConverge,
}

func init() {
	convergeCmd.Flags().String("relations", "", "Relation data (YAML, required)")
	convergeCmd.Flags().Bool("leader", false, "This unit is the elected leader")
	_ = convergeCmd.MarkFlagRequired("relations")
}

// passInput is what a pass needs from the relation data. ok is false when
// the cluster cannot be configured yet; reason says why.
type passInput struct {
	ok       bool
	reason   string
	desired  *types.DesiredState
	peers    []types.RemotePeer
	settings map[string]map[string]string
}

func readPassInput(b *relation.Bundle, c *config.Config) (*passInput, error) {
	in := &passInput{settings: map[string]map[string]string{}}

	if _, ok := b.Relations[relation.HANode]; !ok {
		in.reason = "Ready to form cluster, but not related to peers just yet"
		return in, nil
	}
	in.settings[relation.HANode] = relation.ReadySettings()

	if nodes := len(b.Relation(relation.HANode).Units()) + 1; nodes < c.ClusterCount {
		in.reason = fmt.Sprintf("Not enough nodes in cluster (%d of %d), deferring configuration", nodes, c.ClusterCount)
		return in, nil
	}

	principal, unit, ok := b.Principal()
	if !ok {
		in.reason = "No principal unit found, deferring configuration"
		return in, nil
	}

	desired, err := codec.DecodeDesiredState(relation.UnitGetter(principal, unit))
	if err != nil {
		return nil, err
	}
	in.ok = true
	in.desired = desired
	in.peers = codec.DecodeRemotePeers(b.Relation(relation.PacemakerRemote))
	return in, nil
}

func writeSettings(w io.Writer, settings map[string]map[string]string) error {
	if len(settings) == 0 {
		return nil
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(settings)
}

func runConverge(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("relations")
	leader, _ := cmd.Flags().GetBool("leader")
	logger := log.WithComponent("converge")

	bundle, err := relation.LoadBundle(path)
	if err != nil {
		return err
	}
	in, err := readPassInput(bundle, cfg)
	if err != nil {
		return err
	}
	if !in.ok {
		logger.Info().Msg(in.reason)
		return writeSettings(cmd.OutOrStdout(), in.settings)
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.reconciler().Converge(cmd.Context(), in.desired, reconciler.PassContext{
		IsLeader: leader,
		Peers:    in.peers,
		Config:   cfg,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("pass_id", result.PassID).
		Int("commands", len(result.Commands)).
		Msg("Unit is ready and clustered")

	if _, ok := bundle.Relations[relation.HA]; ok {
		in.settings[relation.HA] = relation.ClusteredSettings()
	}
	return writeSettings(cmd.OutOrStdout(), in.settings)
}
