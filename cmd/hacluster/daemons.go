package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/hacluster/pkg/daemon"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Enable pacemaker, then restart corosync and pacemaker until both run",
	RunE: func(cmd *cobra.Command, args []string) error {
		retries, _ := cmd.Flags().GetInt("retries")
		if retries <= 0 {
			retries = cfg.RestartRetries
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.lifecycle.EnableService(cmd.Context(), daemon.Pacemaker); err != nil {
			return err
		}
		if err := e.lifecycle.ValidatedRestart(cmd.Context(), retries); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ corosync and pacemaker running")
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until this node is listed by pacemaker",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.lifecycle.WaitForReady(cmd.Context(), cfg.ReadyRetries, cfg.ReadyInterval); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is a cluster member\n", e.hostname)
		return nil
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "node-remove [HOSTNAME]",
	Short: "Remove a node from the cluster membership",
	Long: `Remove a node from the cluster membership. Without an argument the
local node is removed, which is what a unit does when it is torn down.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		host := e.hostname
		if len(args) == 1 {
			host = args[0]
		}
		if err := e.client.DeleteNode(cmd.Context(), host); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s removed\n", host)
		return nil
	},
}

func init() {
	restartCmd.Flags().Int("retries", 0, "Restart attempts (default: restart_retries)")
}
