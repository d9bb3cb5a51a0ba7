// Package relation models the key/value channel peer agents use to hand
// each other desired state. The transport itself belongs to the agent
// framework; here a relation is a read-only snapshot of what every remote
// unit published.
package relation

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Well-known relation names
const (
	HA              = "ha"
	JujuInfo        = "juju-info"
	HANode          = "hanode"
	PacemakerRemote = "pacemaker-remote"
)

// Getter reads one key of one unit's settings
type Getter func(key string) (string, bool)

// Relation is the settings published by every remote unit of one relation
type Relation interface {
	Units() []string
	Get(unit, key string) (string, bool)
}

// UnitGetter binds a Relation to a single unit
func UnitGetter(rel Relation, unit string) Getter {
	return func(key string) (string, bool) {
		return rel.Get(unit, key)
	}
}

// Snapshot is an in-memory Relation
type Snapshot map[string]map[string]string

// Units returns the unit names in lexical order
func (s Snapshot) Units() []string {
	var keys []string
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns one setting of one unit
func (s Snapshot) Get(unit, key string) (string, bool) {
	settings, ok := s[unit]
	if !ok {
		return "", false
	}
	v, ok := settings[key]
	return v, ok
}

// Bundle groups the snapshots of several relations, as handed to the CLI
type Bundle struct {
	Relations map[string]Snapshot `yaml:"relations"`
}

// Relation returns the named snapshot, empty when absent
func (b *Bundle) Relation(name string) Snapshot {
	if rel, ok := b.Relations[name]; ok {
		return rel
	}
	return Snapshot{}
}

// Principal returns the relation carrying desired state and its first unit.
// The ha relation wins over juju-info. ok is false when no principal unit
// has joined yet.
func (b *Bundle) Principal() (Relation, string, bool) {
	for _, name := range []string{HA, JujuInfo} {
		rel := b.Relation(name)
		if units := rel.Units(); len(units) > 0 {
			return rel, units[0], true
		}
	}
	return nil, "", false
}

// LoadBundle reads a YAML relation bundle from disk
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open relation data: %w", err)
	}
	defer f.Close()
	return DecodeBundle(f)
}

// DecodeBundle reads a YAML relation bundle
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := yaml.NewDecoder(r).Decode(&b); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse relation data: %w", err)
	}
	if b.Relations == nil {
		b.Relations = map[string]Snapshot{}
	}
	return &b, nil
}

// ReadySettings is what a unit publishes to its peers once it can form the
// cluster
func ReadySettings() map[string]string {
	return map[string]string{"ready": "True"}
}

// ClusteredSettings is what a unit publishes to the principal after a pass
func ClusteredSettings() map[string]string {
	return map[string]string{"clustered": "yes"}
}
