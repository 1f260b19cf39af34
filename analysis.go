package lts

import "fmt"

// Analyze runs the whole transform over the raw bundles of a system: every bundle is minimized, the
// collection is checked against the number of components and then composed.
func Analyze(bundles []*Automaton, opts ...Option) (*MinimalLTSCollection, *CompositeAutomaton, error) {
	mins, err := MinimizeAll(bundles, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := mins.Validate(len(bundles)); err != nil {
		return nil, nil, fmt.Errorf("validate minimal automata: %w", err)
	}
	composite, err := Compose(mins, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("compose: %w", err)
	}
	return mins, composite, nil
}
