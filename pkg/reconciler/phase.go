package reconciler

// Phase is a step of a convergence pass. Phases run in declaration order.
type Phase int

const (
	PhasePreflight Phase = iota
	PhaseGlobal
	PhaseDelete
	PhaseServices
	PhasePrimitives
	PhaseGrouping
	PhaseConstraints
	PhaseRemote
	PhaseCleanup
	PhaseDone
)

var phaseNames = [...]string{
	PhasePreflight:   "preflight",
	PhaseGlobal:      "global",
	PhaseDelete:      "delete",
	PhaseServices:    "services",
	PhasePrimitives:  "primitives",
	PhaseGrouping:    "grouping",
	PhaseConstraints: "constraints",
	PhaseRemote:      "remote",
	PhaseCleanup:     "cleanup",
	PhaseDone:        "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
