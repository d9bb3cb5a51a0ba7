package dns

import (
	"strings"

	"github.com/google/shlex"

	"github.com/cuemby/hacluster/pkg/types"
)

// HostnameSuffix marks the resources that publish a DNS record
const HostnameSuffix = "_hostname"

// ParamValue returns the value of key=value in a resource parameter
// string, with shell quoting removed. Empty when absent.
func ParamValue(params, key string) string {
	tokens, err := shlex.Split(params)
	if err != nil {
		return ""
	}
	prefix := key + "="
	for _, tok := range tokens {
		if v, ok := strings.CutPrefix(tok, prefix); ok {
			return v
		}
	}
	return ""
}

// IPFromParams extracts ip_address from a DNS resource's parameters
func IPFromParams(params string) string {
	return ParamValue(params, "ip_address")
}

// FQDNFromParams extracts fqdn from a DNS resource's parameters
func FQDNFromParams(params string) string {
	return ParamValue(params, "fqdn")
}

// Resources returns the DNS resources of a desired state, name -> params.
// Only deployments using ocf:maas agents have any.
func Resources(ds *types.DesiredState) map[string]string {
	out := map[string]string{}
	if !ds.HasAgentPrefix(types.AgentMAASPrefix) {
		return out
	}
	for name, params := range ds.ResourceParams {
		if strings.HasSuffix(name, HostnameSuffix) {
			out[name] = params
		}
	}
	return out
}
