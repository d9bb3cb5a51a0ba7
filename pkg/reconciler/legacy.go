package reconciler

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/spf13/afero"

	"github.com/cuemby/hacluster/pkg/storage"
	"github.com/cuemby/hacluster/pkg/types"
)

// agentInstalled reports whether the OCF agent backing a desired resource
// is present on this unit. Resources that are not desired any more, or not
// OCF, have no agent to look for.
func (p *pass) agentInstalled(name string) bool {
	agent, ok := p.desired.Resources[name]
	if !ok {
		return false
	}
	a := types.ParseAgent(agent)
	if a.Class != types.ClassOCF || a.Provider == "" {
		return false
	}
	path := filepath.Join(p.cfg.OCFRoot, a.Provider, a.Type)
	isDir, err := afero.IsDir(p.fs, path)
	if err != nil {
		return false
	}
	return !isDir
}

// LegacyDaemonName is the process name a resource ran under before the
// cluster managed it: res_ceilometer_agent_central -> ceilometer-agent-central
func LegacyDaemonName(resource string) string {
	return strings.ReplaceAll(strings.TrimPrefix(resource, "res_"), "_", "-")
}

// killLegacyProcess kills a daemon started outside the cluster that may
// have survived the move into it. Failures are only logged.
func (p *pass) killLegacyProcess(ctx context.Context, resource string) {
	out, err := p.runner.Run(ctx, "ps", "-eo", "pid,cmd")
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to list processes")
		return
	}

	pid := findLegacyPID(string(out), LegacyDaemonName(resource))
	if pid == "" {
		return
	}
	p.logger.Info().Str("resource", resource).Str("pid", pid).Msg("Killing legacy daemon")
	if _, err := p.runner.Run(ctx, "sudo", "kill", "-9", pid); err != nil {
		p.logger.Warn().Err(err).Str("pid", pid).Msg("Failed to kill legacy daemon")
	}
}

// findLegacyPID returns the pid of the first process whose command line
// mentions daemon
func findLegacyPID(ps, daemon string) string {
	re := regexp.MustCompile(`^\s*([0-9]+)\s+.*` + regexp.QuoteMeta(daemon))
	for _, line := range strings.Split(ps, "\n") {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// FingerprintMeta is the meta attribute holding the fingerprint of the
// definition a primitive was last written with
const FingerprintMeta = "hacluster-fingerprint"

func fingerprint(res types.Resource) (uint64, error) {
	return hashstructure.Hash(res, hashstructure.FormatV2, nil)
}

// Fingerprint is the value FingerprintMeta carries for res
func Fingerprint(res types.Resource) (string, error) {
	hash, err := fingerprint(res)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(hash, 16), nil
}

// changed reports whether the live primitive was written from a different
// definition than res. The fingerprint is kept on the primitive so every
// unit that leads compares against the same value; a primitive without one
// counts as changed.
func (p *pass) changed(ctx context.Context, res types.Resource) bool {
	hash, err := fingerprint(res)
	if err != nil {
		return true
	}
	want := strconv.FormatUint(hash, 16)

	live, err := p.cluster.ResourceMeta(ctx, res.Name, FingerprintMeta)
	if err == nil && live == want {
		return false
	}
	if local, err := p.store.GetFingerprint(res.Name); err == nil && local.Hash == hash && live != "" {
		p.logger.Info().Str("resource", res.Name).Msg("Resource rewritten by another unit since this unit applied it")
	}
	return true
}

// remember records res as applied, on the primitive and in the local store.
// Failures only cost an extra update on the next pass.
func (p *pass) remember(ctx context.Context, res types.Resource) {
	hash, err := fingerprint(res)
	if err != nil {
		p.logger.Warn().Err(err).Str("resource", res.Name).Msg("Failed to fingerprint resource")
		return
	}
	if err := p.cluster.SetResourceMeta(ctx, res.Name, FingerprintMeta, strconv.FormatUint(hash, 16)); err != nil {
		p.logger.Warn().Err(err).Str("resource", res.Name).Msg("Failed to tag resource with its fingerprint")
	}
	fp := &storage.Fingerprint{Resource: res.Name, Hash: hash, UpdatedAt: time.Now()}
	if err := p.store.PutFingerprint(fp); err != nil {
		p.logger.Warn().Err(err).Str("resource", res.Name).Msg("Failed to store resource fingerprint")
	}
}
