package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cuemby/hacluster/pkg/crm"
	"github.com/cuemby/hacluster/pkg/daemon"
	"github.com/cuemby/hacluster/pkg/dns"
	"github.com/cuemby/hacluster/pkg/reconciler"
	"github.com/cuemby/hacluster/pkg/storage"
)

// env wires the components of one invocation against the local host
type env struct {
	hostname  string
	runner    crm.Runner
	fs        afero.Fs
	client    *crm.Client
	store     *storage.BoltStore
	lifecycle *daemon.Lifecycle
	gate      *dns.Gate
}

func newEnv(cmd *cobra.Command) (*env, error) {
	hostname, _ := cmd.Flags().GetString("hostname")
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to read hostname: %w", err)
		}
		hostname = h
	}

	store, err := storage.NewBoltStore(cfg.StateDB)
	if err != nil {
		return nil, err
	}

	runner := crm.ExecRunner{}
	fs := afero.NewOsFs()
	client := crm.NewClient(runner, fs)

	return &env{
		hostname:  hostname,
		runner:    runner,
		fs:        fs,
		client:    client,
		store:     store,
		lifecycle: daemon.NewLifecycle(daemon.NewSystemd(runner), client, hostname),
		gate:      dns.NewGate(fs, runner, store, cfg.MAASDNSDir, cfg.OCFRoot),
	}, nil
}

func (e *env) reconciler() *reconciler.Reconciler {
	return reconciler.NewReconciler(e.client, e.lifecycle, e.gate, e.store, e.fs, e.runner)
}

func (e *env) Close() error {
	return e.store.Close()
}
