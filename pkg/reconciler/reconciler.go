package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/cuemby/hacluster/pkg/config"
	"github.com/cuemby/hacluster/pkg/crm"
	"github.com/cuemby/hacluster/pkg/log"
	"github.com/cuemby/hacluster/pkg/metrics"
	"github.com/cuemby/hacluster/pkg/remote"
	"github.com/cuemby/hacluster/pkg/storage"
	"github.com/cuemby/hacluster/pkg/types"
)

// Cluster is the part of the cluster manager client a pass drives
type Cluster interface {
	remote.Cluster
	ResourceRunning(ctx context.Context, name string) bool
	ResourceParam(ctx context.Context, resource, key string) (string, error)
	UpdateResource(ctx context.Context, name, agent, params string) error
	Journal() []string
}

// Daemons is the local daemon lifecycle
type Daemons interface {
	WaitForReady(ctx context.Context, maxRetries int, sleep time.Duration) error
	DisableService(ctx context.Context, service string) error
}

// AddressWriter persists the address of a DNS resource
type AddressWriter interface {
	WriteAddress(name, ip string) error
}

// PassContext is everything a pass depends on besides the desired and the
// live state
type PassContext struct {
	IsLeader bool
	Peers    []types.RemotePeer
	Config   *config.Config
}

// Result describes a finished or aborted pass
type Result struct {
	PassID string
	Leader bool
	// Phase is the last phase entered
	Phase Phase
	// Commands are the mutating cluster manager commands issued, in order
	Commands []string
}

// BlockedError is a fatal condition the operator has to resolve. Message
// is the short status shown to them.
type BlockedError struct {
	Message string
	Err     error
}

func (e *BlockedError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *BlockedError) Unwrap() error { return e.Err }

// blocked wraps err unless it already carries an operator message
func blocked(err error) *BlockedError {
	var be *BlockedError
	if errors.As(err, &be) {
		return be
	}
	return &BlockedError{Message: err.Error(), Err: err}
}

// Reconciler converges the cluster configuration toward a desired state
type Reconciler struct {
	cluster Cluster
	daemons Daemons
	dns     AddressWriter
	store   storage.Store
	fs      afero.Fs
	runner  crm.Runner
	logger  zerolog.Logger
}

// NewReconciler creates a reconciler. fs is where resource agents are
// looked up; runner runs the local commands that are not cluster manager
// commands (process listing, kill).
func NewReconciler(cluster Cluster, daemons Daemons, dns AddressWriter, store storage.Store, fs afero.Fs, runner crm.Runner) *Reconciler {
	return &Reconciler{
		cluster: cluster,
		daemons: daemons,
		dns:     dns,
		store:   store,
		fs:      fs,
		runner:  runner,
		logger:  log.WithComponent("reconciler"),
	}
}

type pass struct {
	*Reconciler
	desired *types.DesiredState
	pc      PassContext
	cfg     *config.Config
	logger  zerolog.Logger
}

type step struct {
	phase      Phase
	leaderOnly bool
	run        func(p *pass, ctx context.Context) error
}

var steps = []step{
	{PhaseGlobal, true, (*pass).configureGlobal},
	{PhaseDelete, true, (*pass).deleteResources},
	{PhaseServices, false, (*pass).disableServices},
	{PhasePrimitives, true, (*pass).configurePrimitives},
	{PhaseGrouping, true, (*pass).configureGrouping},
	{PhaseConstraints, true, (*pass).configureConstraints},
	{PhaseRemote, true, (*pass).configureRemotes},
	{PhaseCleanup, true, (*pass).cleanupResources},
}

// Converge runs one pass. Any error it returns is a *BlockedError; the
// remaining phases are skipped.
func (r *Reconciler) Converge(ctx context.Context, desired *types.DesiredState, pc PassContext) (*Result, error) {
	if pc.Config == nil {
		pc.Config = config.Default()
	}

	result := &Result{PassID: uuid.New().String(), Leader: pc.IsLeader, Phase: PhasePreflight}
	logger := log.WithPass(r.logger, result.PassID)

	timer := metrics.NewTimer()
	journalStart := len(r.cluster.Journal())
	defer func() {
		timer.ObserveDuration(metrics.ConvergenceDuration)
		result.Commands = r.cluster.Journal()[journalStart:]
	}()

	if pc.IsLeader {
		metrics.IsLeader.Set(1)
	} else {
		metrics.IsLeader.Set(0)
	}

	logger.Info().
		Bool("leader", pc.IsLeader).
		Int("resources", len(desired.Resources)).
		Int("peers", len(pc.Peers)).
		Msg("Starting convergence pass")

	p := &pass{Reconciler: r, pc: pc, cfg: pc.Config, logger: logger}

	desired, err := p.preflight(ctx, desired)
	if err != nil {
		return result, r.fail(logger, result, err)
	}
	p.desired = desired

	for _, s := range steps {
		if s.leaderOnly && !pc.IsLeader {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, r.fail(logger, result, err)
		}

		result.Phase = s.phase
		logger.Debug().Str("phase", s.phase.String()).Msg("Entering phase")

		phaseTimer := metrics.NewTimer()
		err := s.run(p, ctx)
		phaseTimer.ObserveDurationVec(metrics.PhaseDuration, s.phase.String())
		if err != nil {
			return result, r.fail(logger, result, err)
		}
	}

	result.Phase = PhaseDone
	metrics.ConvergencePassesTotal.WithLabelValues("success").Inc()
	metrics.UpdateComponent(metrics.ComponentConvergence, true, "Unit is ready and clustered")
	logger.Info().
		Int("commands", len(r.cluster.Journal())-journalStart).
		Dur("duration", timer.Duration()).
		Msg("Convergence pass complete")
	return result, nil
}

func (r *Reconciler) fail(logger zerolog.Logger, result *Result, err error) error {
	be := blocked(err)
	metrics.ConvergencePassesTotal.WithLabelValues("blocked").Inc()
	metrics.UpdateComponent(metrics.ComponentConvergence, false, be.Message)
	logger.Error().Err(be.Err).Str("phase", result.Phase.String()).Msg(be.Message)
	return be
}

// commit issues a crm command line, wrapping failures with what was being
// attempted
func (p *pass) commit(ctx context.Context, what, cmd string) error {
	if err := p.cluster.Commit(ctx, cmd); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}
