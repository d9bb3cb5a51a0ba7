package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/hacluster/pkg/codec"
	"github.com/cuemby/hacluster/pkg/relation"
	"github.com/cuemby/hacluster/pkg/types"
)

var migrateDNSCmd = &cobra.Command{
	Use:   "migrate-dns --relations FILE",
	Short: "Move MAAS DNS addresses out of resource parameters",
	Long: `Write the address of every MAAS DNS resource published on the ha and
juju-info relations to its file under maas_dns_dir. The migration runs once;
later invocations do nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("relations")
		bundle, err := relation.LoadBundle(path)
		if err != nil {
			return err
		}
		states, err := principalStates(bundle)
		if err != nil {
			return err
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.gate.Migrate(cmd.Context(), states)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d address files written\n", n)
		return nil
	},
}

func init() {
	migrateDNSCmd.Flags().String("relations", "", "Relation data (YAML, required)")
	_ = migrateDNSCmd.MarkFlagRequired("relations")
}

// principalStates decodes the desired state of every principal unit
func principalStates(b *relation.Bundle) ([]*types.DesiredState, error) {
	var states []*types.DesiredState
	for _, name := range []string{relation.HA, relation.JujuInfo} {
		rel := b.Relation(name)
		for _, unit := range rel.Units() {
			ds, err := codec.DecodeDesiredState(relation.UnitGetter(rel, unit))
			if err != nil {
				return nil, fmt.Errorf("unit %s: %w", unit, err)
			}
			states = append(states, ds)
		}
	}
	return states, nil
}
