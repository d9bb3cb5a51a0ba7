package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/hacluster/pkg/reconciler"
)

var maintenanceCmd = &cobra.Command{
	Use:       "maintenance on|off",
	Short:     "Put the cluster in or out of maintenance mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var enable bool
		switch args[0] {
		case "on":
			enable = true
		case "off":
		default:
			return fmt.Errorf("mode must be 'on' or 'off'")
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := reconciler.SetMaintenance(cmd.Context(), e.client, enable); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ maintenance-mode %s\n", args[0])
		return nil
	},
}
