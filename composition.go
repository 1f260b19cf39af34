package lts

// CompositeState A node of the composite automaton: one member state per component, aligned by
// component index.
type CompositeState struct {
	Members []StateRef
	Out     []*CompositeTransition

	key      MemberKey
	terminal bool
}

func newCompositeState(members []StateRef, terminal bool) *CompositeState {
	return &CompositeState{
		Members:  members,
		key:      NewMemberKey(members),
		terminal: terminal,
	}
}

// Key Returns the order independent identity of the member set.
func (c *CompositeState) Key() MemberKey {
	return c.key
}

// IsTerminal Returns true if any member is its component's Final state.
func (c *CompositeState) IsTerminal() bool {
	return c.terminal
}

// CompositeTransition An edge of the composite automaton. Error transitions are absorbed by the
// system wide failure condition and have no Target.
type CompositeTransition struct {
	Source      *CompositeState
	Target      *CompositeState
	Probability float64
	Error       bool
}

// CompositeAutomaton is the reachable part of the synchronized product of all minimal automata.
type CompositeAutomaton struct {
	// States in breadth first discovery order, Initial first.
	States  []*CompositeState
	Initial *CompositeState
	// Final is the global Final composite state, nil when it is never reached.
	Final *CompositeState

	index *HashMap[*CompositeState]
}

// Lookup Returns the composite state with exactly the given members, in any order.
func (c *CompositeAutomaton) Lookup(members ...StateRef) (*CompositeState, bool) {
	return c.index.Get(NewMemberKey(members))
}

// ErrorTransitions Returns every error flagged transition of the automaton.
func (c *CompositeAutomaton) ErrorTransitions() []*CompositeTransition {
	var out []*CompositeTransition
	for _, s := range c.States {
		for _, t := range s.Out {
			if t.Error {
				out = append(out, t)
			}
		}
	}
	return out
}

// NumTransitions How many transitions the automaton has, error transitions included.
func (c *CompositeAutomaton) NumTransitions() int {
	n := 0
	for _, s := range c.States {
		n += len(s.Out)
	}
	return n
}
