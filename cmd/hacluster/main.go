package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/hacluster/pkg/config"
	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/metrics"
	"github.com/cuemby/hacluster/pkg/reconciler"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// cfg is loaded before any subcommand runs
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(report(err))
	}
}

// report prints err the way the operator sees it and returns the exit code
func report(err error) int {
	var be *reconciler.BlockedError
	if errors.As(err, &be) {
		fmt.Fprintf(os.Stderr, "blocked: %s\n", be.Message)
		return 2
	}
	if errors.Is(err, config.ErrConfigIncomplete) {
		fmt.Fprintf(os.Stderr, "blocked: %v\n", err)
		return 2
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

var rootCmd = &cobra.Command{
	Use:   "hacluster",
	Short: "hacluster - corosync/pacemaker convergence engine",
	Long: `hacluster drives a corosync/pacemaker cluster toward the resources,
constraints and remote nodes published by the principal application.

Each invocation is one short-lived pass: it reads the relation data handed
to it, inspects the live cluster through the crm shell and issues only the
commands needed to close the gap.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
		metrics.SetVersion(Version)

		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := applyOverrides(cmd, loaded); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("metrics-textfile")
		if path == "" {
			return nil
		}
		return metrics.WriteTextfile(path)
	},
}

// applyOverrides copies explicitly set flags over file values
func applyOverrides(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("cluster-count") {
		c.ClusterCount, _ = flags.GetInt("cluster-count")
	}
	if flags.Changed("state-db") {
		c.StateDB, _ = flags.GetString("state-db")
	}
	if flags.Changed("maas-dns-dir") {
		c.MAASDNSDir, _ = flags.GetString("maas-dns-dir")
	}
	if flags.Changed("ocf-root") {
		c.OCFRoot, _ = flags.GetString("ocf-root")
	}
	return c.Validate()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"hacluster version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log as JSON")
	flags.String("metrics-textfile", "", "Write metrics to this file for the node exporter textfile collector")
	flags.String("hostname", "", "Local node name (default: system hostname)")
	flags.Int("cluster-count", 0, "Override cluster_count")
	flags.String("state-db", "", "Override state_db")
	flags.String("maas-dns-dir", "", "Override maas_dns_dir")
	flags.String("ocf-root", "", "Override ocf_root")

	rootCmd.AddCommand(convergeCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(migrateDNSCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(nodeRemoveCmd)
	rootCmd.AddCommand(statusCmd)
}
