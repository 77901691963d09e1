package mission

// Phase is the Command Centre's mission-phase state machine (spec.md §4.5).
type Phase int

const (
	PhaseSpawn Phase = iota
	PhaseTakeoff
	PhaseProceed
	PhaseRetask
	PhaseAttack
	PhaseShutdown
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSpawn:
		return "Spawn"
	case PhaseTakeoff:
		return "Takeoff"
	case PhaseProceed:
		return "Proceed"
	case PhaseRetask:
		return "Retask"
	case PhaseAttack:
		return "Attack"
	case PhaseShutdown:
		return "Shutdown"
	case PhaseDone:
		return "Done"
	default:
		return "Unknown"
	}
}
