package crm_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hacluster/pkg/crm"
	"github.com/cuemby/hacluster/pkg/crm/crmtest"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name   string
		banner string
		want   string
	}{
		{name: "xenial", banner: "crm 2.2.0\n", want: "2.2.0"},
		{name: "trusty", banner: "1.2.5 (Build f2f315daf6a5fd7ddea8e564cd289aa04218427d)\n", want: "1.2.5"},
		{name: "two part", banner: "crm 4.0\n", want: "4.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := crmtest.New().On("crm --version", tt.banner)
			client := crm.NewClient(runner, afero.NewMemMapFs())

			v, err := client.Version(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())

			// cached
			_, err = client.Version(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, runner.Count("crm --version"))
		})
	}
}

func TestVersionGarbage(t *testing.T) {
	client := crm.NewClient(crmtest.New().On("crm --version", "unknown"), afero.NewMemMapFs())
	_, err := client.Version(context.Background())
	assert.Error(t, err)
}

func TestPropertyDialects(t *testing.T) {
	tests := []struct {
		name    string
		version string
		cmd     string
	}{
		{name: "get-property", version: "crm 2.4.0", cmd: "crm configure get-property maintenance-mode"},
		{name: "newer", version: "crm 4.6.0", cmd: "crm configure get-property maintenance-mode"},
		{name: "show-property", version: "crm 2.2.0", cmd: "crm configure show-property maintenance-mode"},
		{name: "show-property below 2.4", version: "crm 2.3.2", cmd: "crm configure show-property maintenance-mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := crmtest.New().
				On("crm --version", tt.version).
				On(tt.cmd, "false\n")
			client := crm.NewClient(runner, afero.NewMemMapFs())

			v, err := client.Property(context.Background(), "maintenance-mode")
			require.NoError(t, err)
			assert.Equal(t, "false", v)
			assert.Equal(t, 1, runner.Count(tt.cmd))
		})
	}
}

func TestPropertyFromXML(t *testing.T) {
	runner := crmtest.New().
		On("crm --version", "1.2.5 (Build f2f315da)").
		On("crm configure show xml", fixture(t, "show-xml.xml")).
		On("crm configure show xml", fixture(t, "show-xml-maintenance.xml"))
	client := crm.NewClient(runner, afero.NewMemMapFs())

	_, err := client.Property(context.Background(), "maintenance-mode")
	assert.True(t, errors.Is(err, crm.ErrPropertyNotFound))

	v, err := client.Property(context.Background(), "maintenance-mode")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
	assert.Equal(t, 1, runner.Count("crm --version"))
}

func TestPropertyEmptyOutput(t *testing.T) {
	runner := crmtest.New().
		On("crm --version", "crm 2.4.0").
		On("crm configure get-property stonith-enabled", "\n")
	client := crm.NewClient(runner, afero.NewMemMapFs())

	_, err := client.Property(context.Background(), "stonith-enabled")
	assert.True(t, errors.Is(err, crm.ErrPropertyNotFound))
}

func TestSetProperty(t *testing.T) {
	runner := crmtest.New()
	client := crm.NewClient(runner, afero.NewMemMapFs())

	require.NoError(t, client.SetProperty(context.Background(), "maintenance-mode", "false"))
	assert.Equal(t, []string{"crm configure property maintenance-mode=false"}, runner.Calls())
	assert.Equal(t, runner.Calls(), client.Journal())
}

func TestObjectExists(t *testing.T) {
	runner := crmtest.New().On("crm configure show xml", fixture(t, "show-xml-resources.xml"))
	client := crm.NewClient(runner, afero.NewMemMapFs())
	ctx := context.Background()

	ok, err := client.ObjectExists(ctx, "res_ceph-radosgw_public_hostname")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ObjectExists(ctx, "foobar")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.ObjectExists(ctx, "rsc-options")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObjectExistsDumpFailure(t *testing.T) {
	runner := crmtest.New().OnError("crm configure show xml", 1, "error")
	client := crm.NewClient(runner, afero.NewMemMapFs())

	_, err := client.ObjectExists(context.Background(), "res_a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crm.ErrManager))
}

func TestResourceRunning(t *testing.T) {
	runner := crmtest.New().
		On("crm resource status res_nova_consoleauth", "resource res_nova_consoleauth is running on: juju-xxx-machine-6").
		On("crm resource status res_stopped", "resource res_stopped is NOT running").
		OnError("crm resource status res_undefined", 1, "foobar")
	client := crm.NewClient(runner, afero.NewMemMapFs())
	ctx := context.Background()

	assert.True(t, client.ResourceRunning(ctx, "res_nova_consoleauth"))
	assert.False(t, client.ResourceRunning(ctx, "res_stopped"))
	assert.False(t, client.ResourceRunning(ctx, "res_undefined"))
}

func TestListNodes(t *testing.T) {
	runner := crmtest.New().On("crm node status", fixture(t, "node-status.xml"))
	client := crm.NewClient(runner, afero.NewMemMapFs())

	nodes, err := client.ListNodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"juju-3a5deb-radosgw-4", "juju-3a5deb-radosgw-5", "juju-3a5deb-radosgw-6"}, nodes)
}

func TestHasNode(t *testing.T) {
	runner := crmtest.New().On("crm node list", "hanode-1(1000): online\n")
	client := crm.NewClient(runner, afero.NewMemMapFs())

	assert.True(t, client.HasNode(context.Background(), "hanode-1"))
	assert.False(t, client.HasNode(context.Background(), "hanode-2"))
}

func TestRemoteResources(t *testing.T) {
	runner := crmtest.New().On("crm configure show xml", fixture(t, "show-xml-remote.xml"))
	client := crm.NewClient(runner, afero.NewMemMapFs())

	ids, err := client.RemoteResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"node1", "node2"}, ids)
}

func TestResourceMeta(t *testing.T) {
	runner := crmtest.New().On("crm_resource --resource cl_haproxy --get-parameter clone-max --meta", "3\n")
	client := crm.NewClient(runner, afero.NewMemMapFs())
	ctx := context.Background()

	v, err := client.ResourceMeta(ctx, "cl_haproxy", "clone-max")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	require.NoError(t, client.SetResourceMeta(ctx, "cl_haproxy", "clone-max", "2"))
	assert.Equal(t, []string{
		"crm_resource --resource cl_haproxy --set-parameter clone-max --meta --parameter-value 2",
	}, client.Journal())
}

func TestResourceParam(t *testing.T) {
	runner := crmtest.New().On("crm_resource --resource ping --get-parameter host_list", "10.0.0.1\n")
	client := crm.NewClient(runner, afero.NewMemMapFs())

	v, err := client.ResourceParam(context.Background(), "ping", "host_list")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", v)
	assert.Empty(t, client.Journal())
}

func TestCommitPassesQuotesThrough(t *testing.T) {
	runner := crmtest.New()
	client := crm.NewClient(runner, afero.NewMemMapFs())

	cmd := `crm configure primitive st-node1 stonith:external/maas params url='http://maas/MAAS' apikey='a:b:c' hostnames=node1 op monitor interval=25 start-delay=25 timeout=25`
	require.NoError(t, client.Commit(context.Background(), cmd))
	assert.Equal(t, []string{cmd}, runner.Calls())
}

func TestCommitFailure(t *testing.T) {
	runner := crmtest.New().OnError("crm -w -F configure delete res_a", 1, "busy")
	client := crm.NewClient(runner, afero.NewMemMapFs())

	err := client.Commit(context.Background(), "crm -w -F configure delete res_a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crm.ErrManager))

	assert.Error(t, client.Commit(context.Background(), "  "))
}

func TestUpdateResource(t *testing.T) {
	fs := afero.NewMemMapFs()
	var content string
	runner := crmtest.New().OnFunc("crm configure load update", func(_ string, args []string) crmtest.Response {
		data, err := afero.ReadFile(fs, args[len(args)-1])
		if err != nil {
			return crmtest.Response{Err: err}
		}
		content = string(data)
		return crmtest.Response{}
	})
	client := crm.NewClient(runner, fs)

	err := client.UpdateResource(context.Background(), "res_test", "IPaddr2", "params ip=1.2.3.4 cidr_netmask=255.255.0.0")
	require.NoError(t, err)
	assert.Equal(t, "primitive res_test IPaddr2 \\\n\tparams ip=1.2.3.4 cidr_netmask=255.255.0.0", content)

	calls := runner.CallsWithPrefix("crm configure load update ")
	require.Len(t, calls, 1)

	// temp file is gone afterwards
	path := calls[0][len("crm configure load update "):]
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteNode(t *testing.T) {
	runner := crmtest.New()
	client := crm.NewClient(runner, afero.NewMemMapFs())

	require.NoError(t, client.DeleteNode(context.Background(), "juju-34fde5-1"))
	assert.Equal(t, []string{"crm -w -F node delete juju-34fde5-1"}, runner.Calls())
}
