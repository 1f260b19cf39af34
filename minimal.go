package lts

// MinimalLTS is the minimized automaton of one component. It must not be mutated once produced.
type MinimalLTS struct {
	Component int
	// States holds the surviving state handles, Initial first.
	States  []int
	Initial int
	Final   int
	// Error is the synthetic error sink, -1 when no transition ever reaches it.
	Error int

	graph *Automaton
}

// State Returns the state behind a handle.
func (m *MinimalLTS) State(h int) State {
	return m.graph.State(h)
}

// Type Returns the type of the state behind a handle.
func (m *MinimalLTS) Type(h int) StateType {
	return m.graph.states[h].Type
}

// Out Returns the message transitions leaving a state.
func (m *MinimalLTS) Out(state int) []Transition {
	out := make([]Transition, 0, len(m.graph.states[state].msgOut))
	for _, h := range m.graph.states[state].msgOut {
		out = append(out, m.graph.msgs[h])
	}
	return out
}

// In Returns the message transitions entering a state.
func (m *MinimalLTS) In(state int) []Transition {
	in := make([]Transition, 0, len(m.graph.states[state].msgIn))
	for _, h := range m.graph.states[state].msgIn {
		in = append(in, m.graph.msgs[h])
	}
	return in
}

// NumTransitions How many message transitions survive minimization.
func (m *MinimalLTS) NumTransitions() int {
	return m.graph.GetNumTransitions()
}

func (m *MinimalLTS) contains(h int) bool {
	return m.graph.IsLive(h)
}

// MinimalLTSCollection gathers the minimal automata of every component, ordered by component index.
type MinimalLTSCollection struct {
	MinimalLTSs []*MinimalLTS
}

func NewMinimalLTSCollection(mins ...*MinimalLTS) *MinimalLTSCollection {
	return &MinimalLTSCollection{MinimalLTSs: mins}
}

// Validate checks that the collection describes components 0..n-1 in order, n == expected when
// expected is positive, and that every member automaton is internally consistent.
func (c *MinimalLTSCollection) Validate(expected int) error {
	if c == nil || len(c.MinimalLTSs) == 0 {
		return structuralf("empty collection")
	}
	if expected > 0 && len(c.MinimalLTSs) != expected {
		return structuralf("collection has %d components, architecture has %d", len(c.MinimalLTSs), expected)
	}
	for i, m := range c.MinimalLTSs {
		if m == nil || m.graph == nil {
			return structuralf("component %d has no minimal automaton", i)
		}
		if m.Component != i {
			return structuralf("component %d found at position %d", m.Component, i)
		}
		if !m.contains(m.Initial) || m.Type(m.Initial) != Initial {
			return structuralf("component %d has no live initial state", i)
		}
		if !m.contains(m.Final) || m.Type(m.Final) != Final {
			return structuralf("component %d has no live final state", i)
		}
		for _, s := range m.States {
			if !m.contains(s) {
				return structuralf("component %d lists removed state %d", i, s)
			}
			if m.State(s).Component != i {
				return structuralf("state %d of component %d belongs to component %d", s, i, m.State(s).Component)
			}
		}
	}
	return nil
}
