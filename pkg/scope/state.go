package scope

// State is the lifecycle stage of a scope.
type State int

const (
	Unresolved State = iota
	Resolving
	Resolved
	Disposed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// transitions lists the allowed targets for each state.
// Background scopes go straight from Unresolved to Resolved; a failed
// resolution returns to Unresolved. Nothing leaves Disposed.
var transitions = map[State][]State{
	Unresolved: {Resolving, Resolved, Disposed},
	Resolving:  {Resolved, Unresolved, Disposed},
	Resolved:   {Disposed},
	Disposed:   nil,
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
