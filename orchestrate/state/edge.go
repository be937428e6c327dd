package state

// End is the terminal marker. An edge into End finishes the run once its
// source node has executed.
const End = "__end__"

// Edge is a transition between two nodes. A nil Predicate always matches.
type Edge struct {
	From string
	To   string

	// Name labels the predicate in transition events, e.g. "hasMessages".
	Name string

	Predicate TransitionPredicate
}

// Terminal reports whether the edge leads to End.
func (e Edge) Terminal() bool {
	return e.To == End
}

func (e Edge) matches(state State) bool {
	return e.Predicate == nil || e.Predicate(state)
}

// TransitionPredicate decides from the current State whether an edge may be
// taken.
type TransitionPredicate func(state State) bool

// AlwaysTransition matches every State.
func AlwaysTransition() TransitionPredicate {
	return func(state State) bool { return true }
}

// KeyExists matches when key is present.
func KeyExists(key string) TransitionPredicate {
	return func(state State) bool {
		_, exists := state.Get(key)
		return exists
	}
}

// KeyEquals matches when key is present and equal to value.
func KeyEquals(key string, value any) TransitionPredicate {
	return func(state State) bool {
		val, exists := state.Get(key)
		return exists && val == value
	}
}

// Not inverts predicate.
func Not(predicate TransitionPredicate) TransitionPredicate {
	return func(state State) bool {
		return !predicate(state)
	}
}

// And matches when every predicate matches.
func And(predicates ...TransitionPredicate) TransitionPredicate {
	return func(state State) bool {
		for _, p := range predicates {
			if !p(state) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(predicates ...TransitionPredicate) TransitionPredicate {
	return func(state State) bool {
		for _, p := range predicates {
			if p(state) {
				return true
			}
		}
		return false
	}
}
