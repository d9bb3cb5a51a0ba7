package reconciler_test

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hacluster/pkg/config"
	"github.com/cuemby/hacluster/pkg/crm"
	"github.com/cuemby/hacluster/pkg/crm/crmtest"
	"github.com/cuemby/hacluster/pkg/daemon"
	"github.com/cuemby/hacluster/pkg/dns"
	"github.com/cuemby/hacluster/pkg/reconciler"
	"github.com/cuemby/hacluster/pkg/storage"
	"github.com/cuemby/hacluster/pkg/types"
)

var (
	_ reconciler.Cluster       = (*crm.Client)(nil)
	_ reconciler.Daemons       = (*daemon.Lifecycle)(nil)
	_ reconciler.AddressWriter = (*dns.Gate)(nil)
)

const nodeStatus = `<nodes>
  <node id="1000" uname="juju-machine-0" type="member"/>
  <node id="1001" uname="juju-machine-1" type="member"/>
</nodes>`

// liveCluster simulates the configuration and run state behind the crm
// shell: objects created through it show up in later dumps
type liveCluster struct {
	mu      sync.Mutex
	objects map[string]bool
	running map[string]bool
	props   map[string]string
	// meta attributes and last written definition per primitive
	meta map[string]map[string]string
	defs map[string]string
	// updateErr makes every load update fail with this stderr
	updateErr string
}

func newLiveCluster() *liveCluster {
	return &liveCluster{
		objects: map[string]bool{},
		running: map[string]bool{},
		meta:    map[string]map[string]string{},
		defs:    map[string]string{},
		props: map[string]string{
			"no-quorum-policy":  "stop",
			"maintenance-mode":  "false",
			"symmetric-cluster": "true",
		},
	}
}

func (l *liveCluster) add(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.objects[id] = true
	}
}

func (l *liveCluster) start(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.running[id] = true
	}
}

func (l *liveCluster) cib() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.objects))
	for id := range l.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(`<cib><configuration><crm_config><cluster_property_set id="cib-bootstrap-options"/></crm_config><resources>`)
	for _, id := range ids {
		b.WriteString(`<primitive id="` + id + `"/>`)
	}
	b.WriteString(`</resources></configuration></cib>`)
	return b.String()
}

func (l *liveCluster) definition(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.defs[name]
}

// script answers runner from the simulated cluster. fs is where the client
// under test writes its load update files.
func (l *liveCluster) script(runner *crmtest.Runner, fs afero.Fs) *crmtest.Runner {
	return runner.
		On("crm --version", "crm 4.0.0\n").
		On("crm node status", nodeStatus).
		OnFunc("crm configure show xml", func(string, []string) crmtest.Response {
			return crmtest.Response{Output: l.cib()}
		}).
		OnFunc("crm configure get-property ", func(_ string, args []string) crmtest.Response {
			l.mu.Lock()
			defer l.mu.Unlock()
			return crmtest.Response{Output: l.props[args[2]]}
		}).
		OnFunc("crm configure property ", func(_ string, args []string) crmtest.Response {
			l.mu.Lock()
			defer l.mu.Unlock()
			k, v, _ := strings.Cut(args[2], "=")
			l.props[k] = v
			return crmtest.Response{}
		}).
		OnFunc("crm -w -F configure ", func(_ string, args []string) crmtest.Response {
			// -w -F configure <kind> <id> ...
			l.mu.Lock()
			defer l.mu.Unlock()
			switch args[3] {
			case "delete":
				delete(l.objects, args[4])
				delete(l.running, args[4])
				delete(l.meta, args[4])
				delete(l.defs, args[4])
			case "primitive":
				l.objects[args[4]] = true
				l.defs[args[4]] = strings.Join(args[5:], " ")
			default:
				l.objects[args[4]] = true
			}
			return crmtest.Response{}
		}).
		OnFunc("crm configure load update ", func(name string, args []string) crmtest.Response {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.updateErr != "" {
				return crmtest.Response{Err: crmtest.Failure(name+" "+strings.Join(args, " "), 1, l.updateErr)}
			}
			data, err := afero.ReadFile(fs, args[3])
			if err != nil {
				return crmtest.Response{Err: err}
			}
			// primitive <id> <agent> \ <params>
			fields := strings.Fields(string(data))
			id := fields[1]
			l.defs[id] = strings.Join(append(fields[2:3], fields[4:]...), " ")
			// the whole definition is replaced, meta attributes included
			delete(l.meta, id)
			return crmtest.Response{}
		}).
		OnFunc("crm_resource --resource ", func(name string, args []string) crmtest.Response {
			// --resource <id> --get-parameter|--set-parameter <key> [--meta] ...
			l.mu.Lock()
			defer l.mu.Unlock()
			id, key := args[1], args[3]
			if len(args) < 5 || args[4] != "--meta" {
				return crmtest.Response{}
			}
			if args[2] == "--set-parameter" {
				if l.meta[id] == nil {
					l.meta[id] = map[string]string{}
				}
				l.meta[id][key] = args[len(args)-1]
				return crmtest.Response{}
			}
			v, ok := l.meta[id][key]
			if !ok {
				return crmtest.Response{Err: crmtest.Failure(name+" "+strings.Join(args, " "), 6, "Error performing operation: No such device or address")}
			}
			return crmtest.Response{Output: v + "\n"}
		}).
		OnFunc("crm -F configure location ", func(_ string, args []string) crmtest.Response {
			l.add(args[3])
			return crmtest.Response{}
		}).
		OnFunc("crm -w -F resource stop ", func(_ string, args []string) crmtest.Response {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.running, args[4])
			return crmtest.Response{}
		}).
		OnFunc("crm resource status ", func(_ string, args []string) crmtest.Response {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.running[args[2]] {
				return crmtest.Response{Output: "resource " + args[2] + " is running on: juju-machine-0\n"}
			}
			return crmtest.Response{Output: "resource " + args[2] + " is NOT running\n"}
		})
}

type fakeDaemons struct {
	readyErr error
	disabled []string
}

func (f *fakeDaemons) WaitForReady(context.Context, int, time.Duration) error {
	return f.readyErr
}

func (f *fakeDaemons) DisableService(_ context.Context, service string) error {
	f.disabled = append(f.disabled, service)
	return nil
}

type fakeDNS map[string]string

func (f fakeDNS) WriteAddress(name, ip string) error {
	f[name] = ip
	return nil
}

type fixture struct {
	live    *liveCluster
	runner  *crmtest.Runner
	client  *crm.Client
	daemons *fakeDaemons
	dns     fakeDNS
	fs      afero.Fs
	rec     *reconciler.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		live:    newLiveCluster(),
		daemons: &fakeDaemons{},
		dns:     fakeDNS{},
		fs:      afero.NewMemMapFs(),
	}
	f.runner = f.live.script(crmtest.New(), f.fs)
	f.client = crm.NewClient(f.runner, f.fs)
	f.rec = reconciler.NewReconciler(f.client, f.daemons, f.dns, store, f.fs, f.runner)
	return f
}

// join adds another unit driving the same live cluster with its own state
// store
func (f *fixture) join(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	peer := &fixture{
		live:    f.live,
		daemons: &fakeDaemons{},
		dns:     fakeDNS{},
		fs:      afero.NewMemMapFs(),
	}
	peer.runner = f.live.script(crmtest.New(), peer.fs)
	peer.client = crm.NewClient(peer.runner, peer.fs)
	peer.rec = reconciler.NewReconciler(peer.client, peer.daemons, peer.dns, store, peer.fs, peer.runner)
	return peer
}

// tagged is the command recording the fingerprint of a written primitive
func tagged(t *testing.T, name, agent, params string) string {
	t.Helper()
	fp, err := reconciler.Fingerprint(types.Resource{Name: name, Agent: agent, Params: params})
	require.NoError(t, err)
	return "crm_resource --resource " + name + " --set-parameter " + reconciler.FingerprintMeta + " --meta --parameter-value " + fp
}

func leader() reconciler.PassContext {
	return reconciler.PassContext{IsLeader: true, Config: config.Default()}
}

func singleResource() *types.DesiredState {
	ds := types.NewDesiredState()
	ds.Resources["res_a"] = "ocf:heartbeat:IPaddr2"
	ds.ResourceParams["res_a"] = "params ip=10.0.0.5"
	return ds
}

func TestConvergeCreatesPrimitive(t *testing.T) {
	f := newFixture(t)

	result, err := f.rec.Converge(context.Background(), singleResource(), leader())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"crm -w -F configure primitive res_a ocf:heartbeat:IPaddr2 params ip=10.0.0.5",
		tagged(t, "res_a", "ocf:heartbeat:IPaddr2", "params ip=10.0.0.5"),
		"crm resource cleanup res_a",
	}, result.Commands)
	assert.Equal(t, reconciler.PhaseDone, result.Phase)
	assert.NotEmpty(t, result.PassID)
}

func TestConvergeIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rec.Converge(ctx, singleResource(), leader())
	require.NoError(t, err)
	f.live.start("res_a")

	result, err := f.rec.Converge(ctx, singleResource(), leader())
	require.NoError(t, err)
	assert.Empty(t, result.Commands)
	assert.Empty(t, f.runner.CallsWithPrefix("crm configure load update"))
}

func TestConvergeUpdatesChangedPrimitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rec.Converge(ctx, singleResource(), leader())
	require.NoError(t, err)
	f.live.start("res_a")

	changed := singleResource()
	changed.ResourceParams["res_a"] = "params ip=10.0.0.6"
	result, err := f.rec.Converge(ctx, changed, leader())
	require.NoError(t, err)

	require.Len(t, result.Commands, 2)
	assert.True(t, strings.HasPrefix(result.Commands[0], "crm configure load update "))
	assert.Equal(t, tagged(t, "res_a", "ocf:heartbeat:IPaddr2", "params ip=10.0.0.6"), result.Commands[1])
	assert.Equal(t, "ocf:heartbeat:IPaddr2 params ip=10.0.0.6", f.live.definition("res_a"))
}

func TestConvergeLeadershipMoves(t *testing.T) {
	b := newFixture(t)
	a := b.join(t)
	ctx := context.Background()

	v1 := singleResource()
	v2 := singleResource()
	v2.ResourceParams["res_a"] = "params ip=10.0.0.6"

	_, err := b.rec.Converge(ctx, v1, leader())
	require.NoError(t, err)
	b.live.start("res_a")

	_, err = a.rec.Converge(ctx, v2, leader())
	require.NoError(t, err)
	require.Equal(t, "ocf:heartbeat:IPaddr2 params ip=10.0.0.6", b.live.definition("res_a"))

	// b applied v1 itself, but the cluster now runs a's v2
	result, err := b.rec.Converge(ctx, v1, leader())
	require.NoError(t, err)
	require.Len(t, result.Commands, 2)
	assert.True(t, strings.HasPrefix(result.Commands[0], "crm configure load update "))
	assert.Equal(t, "ocf:heartbeat:IPaddr2 params ip=10.0.0.5", b.live.definition("res_a"))

	// and a sees b's rewrite in turn
	result, err = a.rec.Converge(ctx, v1, leader())
	require.NoError(t, err)
	assert.Empty(t, result.Commands)
}

func TestConvergeUpdateFailureBlocks(t *testing.T) {
	f := newFixture(t)
	f.live.add("res_a")
	f.live.updateErr = "ERROR: bad params"

	ds := singleResource()
	ds.Groups["grp_a"] = "res_a"

	result, err := f.rec.Converge(context.Background(), ds, leader())
	require.Error(t, err)

	var be *reconciler.BlockedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Cannot update pcmkr resource: res_a", be.Message)
	assert.ErrorIs(t, err, crm.ErrManager)
	assert.Equal(t, reconciler.PhasePrimitives, result.Phase)
	assert.Empty(t, f.runner.CallsWithPrefix("crm -w -F configure group"))
}

func TestConvergeDeleteAbsent(t *testing.T) {
	f := newFixture(t)

	ds := types.NewDesiredState()
	ds.DeleteResources = []string{"res_gone"}

	result, err := f.rec.Converge(context.Background(), ds, leader())
	require.NoError(t, err)

	assert.Empty(t, result.Commands)
	assert.Empty(t, f.runner.CallsWithPrefix("ps"))
	assert.Empty(t, f.runner.CallsWithPrefix("sudo"))
}

const psOutput = `  PID CMD
  6863 sshd: ubuntu@pts/7
  11109 /usr/bin/python3 /usr/bin/ceilometer-agent-central --config
`

func TestConvergeDeleteRunningResource(t *testing.T) {
	f := newFixture(t)
	const name = "res_ceilometer_agent_central"
	f.live.add(name)
	f.live.start(name)
	f.runner.On("ps -eo pid,cmd", psOutput)
	require.NoError(t, afero.WriteFile(f.fs, "/usr/lib/ocf/resource.d/openstack/ceilometer-agent-central", []byte("#!/bin/sh"), 0755))

	ds := types.NewDesiredState()
	ds.Resources[name] = "ocf:openstack:ceilometer-agent-central"
	ds.DeleteResources = []string{name}

	_, err := f.rec.Converge(context.Background(), ds, leader())
	require.NoError(t, err)

	journal := f.client.Journal()
	require.GreaterOrEqual(t, len(journal), 2)
	assert.Equal(t, []string{
		"crm -w -F resource stop " + name,
		"crm -w -F configure delete " + name,
	}, journal[:2])
	assert.Equal(t, 1, f.runner.Count("sudo kill -9 11109"))
}

func TestConvergeDeleteWithoutAgent(t *testing.T) {
	f := newFixture(t)
	f.live.add("res_old")
	f.runner.On("ps -eo pid,cmd", psOutput)

	ds := types.NewDesiredState()
	ds.DeleteResources = []string{"res_old"}

	result, err := f.rec.Converge(context.Background(), ds, leader())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"crm resource cleanup res_old",
		"crm -w -F configure delete res_old",
	}, result.Commands)
	assert.Empty(t, f.runner.CallsWithPrefix("sudo"))
}

func TestConvergeOrdering(t *testing.T) {
	f := newFixture(t)

	ds := types.NewDesiredState()
	ds.Resources["res_vip"] = "ocf:heartbeat:IPaddr2"
	ds.ResourceParams["res_vip"] = "params ip=10.0.0.5"
	ds.Resources["res_haproxy"] = "lsb:haproxy"
	ds.Resources["res_db"] = "ocf:heartbeat:mysql"
	ds.Groups["grp_vips"] = "res_vip"
	ds.MasterSlave["ms_db"] = "res_db meta notify=true"
	ds.Clones["cl_haproxy"] = "res_haproxy"
	ds.Orders["ord_a"] = "inf: cl_haproxy grp_vips"
	ds.Colocations["col_a"] = "inf: grp_vips cl_haproxy"
	ds.Locations["loc_a"] = "grp_vips 100: juju-machine-0"

	result, err := f.rec.Converge(context.Background(), ds, leader())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"crm -w -F configure primitive res_db ocf:heartbeat:mysql",
		tagged(t, "res_db", "ocf:heartbeat:mysql", ""),
		"crm -w -F configure primitive res_haproxy lsb:haproxy",
		tagged(t, "res_haproxy", "lsb:haproxy", ""),
		"crm -w -F configure primitive res_vip ocf:heartbeat:IPaddr2 params ip=10.0.0.5",
		tagged(t, "res_vip", "ocf:heartbeat:IPaddr2", "params ip=10.0.0.5"),
		"crm -w -F configure group grp_vips res_vip",
		"crm -w -F configure ms ms_db res_db meta notify=true",
		"crm -w -F configure clone cl_haproxy res_haproxy",
		"crm -w -F configure order ord_a inf: cl_haproxy grp_vips",
		"crm -w -F configure colocation col_a inf: grp_vips cl_haproxy",
		"crm -w -F configure location loc_a grp_vips 100: juju-machine-0",
		"crm resource cleanup cl_haproxy",
		"crm resource cleanup grp_vips",
	}, result.Commands)
	assert.Equal(t, []string{"haproxy"}, f.daemons.disabled)
}

func TestConvergeFollower(t *testing.T) {
	f := newFixture(t)

	ds := singleResource()
	ds.Resources["res_haproxy"] = "lsb:haproxy"
	ds.Resources["res_api"] = "ocf:openstack:nova-api"
	ds.InitServices["res_api"] = "nova-api"

	result, err := f.rec.Converge(context.Background(), ds, reconciler.PassContext{Config: config.Default()})
	require.NoError(t, err)

	assert.Empty(t, result.Commands)
	assert.False(t, result.Leader)
	assert.Equal(t, []string{"nova-api", "haproxy"}, f.daemons.disabled)
	assert.Empty(t, f.runner.CallsWithPrefix("crm configure show xml"))
}

func TestConvergeMissingMAASConfig(t *testing.T) {
	f := newFixture(t)

	ds := types.NewDesiredState()
	ds.Resources["res_ks_public_hostname"] = "ocf:maas:dns"
	ds.ResourceParams["res_ks_public_hostname"] = `params fqdn="ks.maas" ip_address="10.0.0.1"`

	result, err := f.rec.Converge(context.Background(), ds, leader())
	require.Error(t, err)

	assert.ErrorIs(t, err, config.ErrConfigIncomplete)
	assert.Equal(t, reconciler.PhasePreflight, result.Phase)
	assert.Empty(t, f.runner.Calls())
	assert.Empty(t, f.dns)
}

func TestConvergeStonithPeerWithoutMAAS(t *testing.T) {
	f := newFixture(t)

	pc := leader()
	pc.Peers = []types.RemotePeer{{Unit: "compute/0", RemoteHostname: "node1.maas", StonithHostname: "node1.maas"}}

	_, err := f.rec.Converge(context.Background(), singleResource(), pc)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigIncomplete)
	assert.Empty(t, f.runner.Calls())
}

func TestConvergeDNSResources(t *testing.T) {
	f := newFixture(t)

	pc := leader()
	pc.Config.MAASURL = "http://maas.example.com/MAAS"
	pc.Config.MAASCredentials = "key:secret"

	ds := types.NewDesiredState()
	ds.Resources["res_ks_public_hostname"] = "ocf:maas:dns"
	ds.ResourceParams["res_ks_public_hostname"] = `params fqdn="ks.maas" ip_address="10.0.0.1"`

	result, err := f.rec.Converge(context.Background(), ds, pc)
	require.NoError(t, err)

	assert.Equal(t, fakeDNS{"res_ks_public_hostname": "10.0.0.1"}, f.dns)
	assert.Contains(t, result.Commands,
		`crm -w -F configure primitive res_ks_public_hostname ocf:maas:dns params fqdn="ks.maas" ip_address="10.0.0.1" maas_url="http://maas.example.com/MAAS" maas_credentials="key:secret"`)
	// the caller's state is left alone
	assert.Equal(t, `params fqdn="ks.maas" ip_address="10.0.0.1"`, ds.ResourceParams["res_ks_public_hostname"])
}

func TestConvergeNotReady(t *testing.T) {
	f := newFixture(t)
	f.daemons.readyErr = daemon.ErrServicesNotUp

	_, err := f.rec.Converge(context.Background(), singleResource(), leader())
	require.Error(t, err)

	var be *reconciler.BlockedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Pacemaker is down", be.Message)
	assert.True(t, errors.Is(err, daemon.ErrServicesNotUp))
	assert.Empty(t, f.client.Journal())
}

func TestConvergeGlobalProperties(t *testing.T) {
	f := newFixture(t)
	f.live.props = map[string]string{}

	pc := leader()
	pc.Config.ClusterCount = 2
	pc.Config.MaintenanceMode = true

	result, err := f.rec.Converge(context.Background(), types.NewDesiredState(), pc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"crm configure property no-quorum-policy=ignore",
		"crm configure property maintenance-mode=true",
		"crm configure property symmetric-cluster=true",
	}, result.Commands)

	// applied values are remembered
	result, err = f.rec.Converge(context.Background(), types.NewDesiredState(), pc)
	require.NoError(t, err)
	assert.Empty(t, result.Commands)
}

func TestConvergeMonitorHost(t *testing.T) {
	f := newFixture(t)

	pc := leader()
	pc.Config.MonitorHost = "10.0.0.254"

	result, err := f.rec.Converge(context.Background(), singleResource(), pc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`crm -w -F configure primitive ping ocf:pacemaker:ping params host_list="10.0.0.254" multiplier="100" op monitor interval="5s"`,
		`crm -w -F configure clone cl_ping ping meta interleave="true"`,
		"crm -w -F configure primitive res_a ocf:heartbeat:IPaddr2 params ip=10.0.0.5",
		tagged(t, "res_a", "ocf:heartbeat:IPaddr2", "params ip=10.0.0.5"),
		"crm -F configure location Ping-res_a res_a rule -inf: pingd lte 0",
		"crm resource cleanup res_a",
	}, result.Commands)

	// dropping the monitor host removes ping again
	f.live.start("res_a")
	pc.Config.MonitorHost = ""
	result, err = f.rec.Converge(context.Background(), singleResource(), pc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"crm -w -F resource stop ping",
		"crm -w -F configure delete ping",
	}, result.Commands)
}

func TestConvergePingRuleRetried(t *testing.T) {
	f := newFixture(t)
	const rule = "crm -F configure location Ping-res_a res_a rule -inf: pingd lte 0"
	f.runner.OnError(rule, 1, "ERROR: cib busy")
	f.runner.On(rule, "")

	pc := leader()
	pc.Config.MonitorHost = "10.0.0.254"

	result, err := f.rec.Converge(context.Background(), singleResource(), pc)
	require.Error(t, err)
	assert.Equal(t, reconciler.PhasePrimitives, result.Phase)

	// the primitive exists now; the rule still gets added
	result, err = f.rec.Converge(context.Background(), singleResource(), pc)
	require.NoError(t, err)
	assert.Contains(t, result.Commands, rule)
	assert.Empty(t, f.runner.CallsWithPrefix("crm configure load update"))
	assert.Equal(t, 2, f.runner.Count(rule))
}

func TestConvergeRemotePeers(t *testing.T) {
	f := newFixture(t)
	f.live.start("res_a")
	f.live.add("res_a")

	pc := leader()
	pc.Peers = []types.RemotePeer{
		{Unit: "compute/0", RemoteHostname: "node1.maas", EnableResources: types.True},
	}

	result, err := f.rec.Converge(context.Background(), singleResource(), pc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"crm configure primitive node1 ocf:pacemaker:remote params server=node1.maas reconnect_interval=60 op monitor interval=30s",
		"crm -w -F configure location loc-node1-juju-machine-0 node1 0: juju-machine-0",
		"crm -w -F configure location loc-node1-juju-machine-1 node1 0: juju-machine-1",
		"crm configure property symmetric-cluster=false",
		"crm -w -F configure location loc-res_a-juju-machine-0 res_a 0: juju-machine-0",
		"crm -w -F configure location loc-res_a-juju-machine-1 res_a 0: juju-machine-1",
	}, result.Commands[2:])
	assert.True(t, strings.HasPrefix(result.Commands[0], "crm configure load update "))
	assert.Equal(t, tagged(t, "res_a", "ocf:heartbeat:IPaddr2", "params ip=10.0.0.5"), result.Commands[1])
}

func TestConvergeCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.rec.Converge(ctx, singleResource(), leader())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, reconciler.PhasePreflight, result.Phase)
	assert.Empty(t, result.Commands)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "primitives", reconciler.PhasePrimitives.String())
	assert.Equal(t, "unknown", reconciler.Phase(99).String())
}

func TestLegacyDaemonName(t *testing.T) {
	assert.Equal(t, "ceilometer-agent-central", reconciler.LegacyDaemonName("res_ceilometer_agent_central"))
	assert.Equal(t, "haproxy", reconciler.LegacyDaemonName("haproxy"))
}
