package workflow

// Phase is a state of the episode state machine.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseRouting
	PhaseGenerating
	PhaseSummarizing
	PhaseEmitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseRouting:
		return "routing"
	case PhaseGenerating:
		return "generating"
	case PhaseSummarizing:
		return "summarizing"
	case PhaseEmitting:
		return "emitting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
