package types

import (
	"sort"
	"strings"
)

// Agent classes and well-known agents
const (
	ClassOCF     = "ocf"
	ClassLSB     = "lsb"
	ClassStonith = "stonith"

	AgentPacemakerRemote = "ocf:pacemaker:remote"
	AgentMAASStonith     = "stonith:external/maas"
	AgentMAASPrefix      = "ocf:maas"
)

// Agent is a parsed resource agent string such as ocf:heartbeat:IPaddr2
type Agent struct {
	Class    string
	Provider string
	Type     string
}

// ParseAgent splits class:provider:type. Two-part agents (lsb:haproxy,
// stonith:external/maas) have no provider.
func ParseAgent(s string) Agent {
	parts := strings.SplitN(s, ":", 3)
	switch len(parts) {
	case 3:
		return Agent{Class: parts[0], Provider: parts[1], Type: parts[2]}
	case 2:
		return Agent{Class: parts[0], Type: parts[1]}
	default:
		return Agent{Type: s}
	}
}

// String reassembles the agent
func (a Agent) String() string {
	switch {
	case a.Class == "":
		return a.Type
	case a.Provider == "":
		return a.Class + ":" + a.Type
	default:
		return a.Class + ":" + a.Provider + ":" + a.Type
	}
}

// Resource is a single primitive of the desired state
type Resource struct {
	Name   string
	Agent  string
	Params string
}

// DesiredState is one decoded desired-state payload. Every map is keyed by
// object name; values are agent strings (Resources) or free-form parameter
// strings passed through to the cluster manager verbatim.
type DesiredState struct {
	Resources       map[string]string
	ResourceParams  map[string]string
	Groups          map[string]string
	MasterSlave     map[string]string
	Orders          map[string]string
	Colocations     map[string]string
	Clones          map[string]string
	Locations       map[string]string
	InitServices    map[string]string
	DeleteResources []string
}

// NewDesiredState returns an empty desired state with all maps allocated
func NewDesiredState() *DesiredState {
	return &DesiredState{
		Resources:      map[string]string{},
		ResourceParams: map[string]string{},
		Groups:         map[string]string{},
		MasterSlave:    map[string]string{},
		Orders:         map[string]string{},
		Colocations:    map[string]string{},
		Clones:         map[string]string{},
		Locations:      map[string]string{},
		InitServices:   map[string]string{},
	}
}

// Resource returns the named primitive with its parameters
func (d *DesiredState) Resource(name string) Resource {
	return Resource{Name: name, Agent: d.Resources[name], Params: d.ResourceParams[name]}
}

// HasAgentPrefix reports whether any desired resource uses an agent with
// the given prefix
func (d *DesiredState) HasAgentPrefix(prefix string) bool {
	for _, agent := range d.Resources {
		if strings.HasPrefix(agent, prefix) {
			return true
		}
	}
	return false
}

// Wrapped returns the names that are members of a group or the target of a
// clone or master/slave set. Such resources are started and cleaned up
// through their wrapper.
func (d *DesiredState) Wrapped() map[string]bool {
	wrapped := map[string]bool{}
	for _, params := range d.Groups {
		for _, member := range GroupMembers(params) {
			wrapped[member] = true
		}
	}
	for _, params := range d.Clones {
		if target := WrapTarget(params); target != "" {
			wrapped[target] = true
		}
	}
	for _, params := range d.MasterSlave {
		if target := WrapTarget(params); target != "" {
			wrapped[target] = true
		}
	}
	return wrapped
}

// GroupMembers returns the member names of a group parameter string such
// as "res_a res_b meta target-role=Started"
func GroupMembers(params string) []string {
	var members []string
	for _, field := range strings.Fields(params) {
		if field == "meta" || field == "params" || field == "description" || strings.Contains(field, "=") {
			break
		}
		members = append(members, field)
	}
	return members
}

// WrapTarget returns the wrapped resource of a clone or ms parameter string
func WrapTarget(params string) string {
	fields := strings.Fields(params)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SortedNames returns the keys of a map in lexical order so that passes
// over the same input issue commands in the same order
func SortedNames[V any](m map[string]V) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tristate is a boolean that may be missing
type Tristate int

const (
	Unset Tristate = iota
	True
	False
)

// RemotePeer is what one pacemaker-remote unit advertised
type RemotePeer struct {
	Unit            string
	RemoteHostname  string
	StonithHostname string
	EnableResources Tristate
}
