package remote

import (
	"context"

	"github.com/cuemby/hacluster/pkg/types"
)

// Targeting is whether resources are meant to run on remote nodes
type Targeting int

const (
	NotTargeted Targeting = iota
	Targeted
	// Ambiguous means the peers disagree or some did not answer. Nothing
	// is changed on an ambiguous answer.
	Ambiguous
)

func (t Targeting) String() string {
	switch t {
	case Targeted:
		return "targeted"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not-targeted"
	}
}

const symmetricCluster = "symmetric-cluster"

// Answer folds the per-peer enable-resources flags into one answer
func Answer(peers []types.RemotePeer) Targeting {
	if len(peers) == 0 {
		return NotTargeted
	}
	var yes, no int
	for _, peer := range peers {
		switch peer.EnableResources {
		case types.True:
			yes++
		case types.False:
			no++
		default:
			return Ambiguous
		}
	}
	switch {
	case yes == len(peers):
		return Targeted
	case no == len(peers):
		return NotTargeted
	default:
		return Ambiguous
	}
}

// SymmetryValue is the symmetric-cluster value for an answer; ok is false
// when the property must be left alone
func SymmetryValue(t Targeting) (value string, ok bool) {
	switch t {
	case Targeted:
		return "false", true
	case NotTargeted:
		return "true", true
	default:
		return "", false
	}
}

// ApplySymmetry writes symmetric-cluster when it differs from the answer
func (m *Manager) ApplySymmetry(ctx context.Context, t Targeting) error {
	want, ok := SymmetryValue(t)
	if !ok {
		m.logger.Info().Str("targeting", t.String()).Msg("Leaving symmetric-cluster untouched")
		return nil
	}
	if current, err := m.cluster.Property(ctx, symmetricCluster); err == nil && current == want {
		return nil
	}
	return m.cluster.SetProperty(ctx, symmetricCluster, want)
}
