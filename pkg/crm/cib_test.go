package crm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestPropertyFromCIB(t *testing.T) {
	_, err := propertyFromCIB(fixture(t, "show-xml.xml"), "maintenance-mode")
	assert.True(t, errors.Is(err, ErrPropertyNotFound))

	v, err := propertyFromCIB(fixture(t, "show-xml-maintenance.xml"), "maintenance-mode")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	v, err = propertyFromCIB(fixture(t, "show-xml.xml"), "no-quorum-policy")
	require.NoError(t, err)
	assert.Equal(t, "stop", v)
}

func TestPropertyFromCIBInvalid(t *testing.T) {
	_, err := propertyFromCIB([]byte("<cib><configuration>"), "maintenance-mode")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrPropertyNotFound))
}

func TestObjectInCIB(t *testing.T) {
	dump := fixture(t, "show-xml-resources.xml")

	tests := []struct {
		id   string
		want bool
	}{
		{id: "res_ceph-radosgw_public_hostname", want: true},
		{id: "grp_ceph-radosgw_hostnames", want: true},
		{id: "cl_cephrg_haproxy", want: true},
		{id: "foobar", want: false},
		{id: "rsc-options", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := objectInCIB(dump, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoteResourcesInCIB(t *testing.T) {
	ids, err := remoteResourcesInCIB(fixture(t, "show-xml-remote.xml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"node1", "node2"}, ids)

	ids, err = remoteResourcesInCIB(fixture(t, "show-xml-resources.xml"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemberNodes(t *testing.T) {
	nodes, err := memberNodes(fixture(t, "node-status.xml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"juju-3a5deb-radosgw-4", "juju-3a5deb-radosgw-5", "juju-3a5deb-radosgw-6"}, nodes)
}
