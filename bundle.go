package lts

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SystemSpec is the document form of a whole system: one bundle per component, in component order.
type SystemSpec struct {
	Components []BundleSpec `yaml:"components"`
}

// BundleSpec is the document form of one component's raw automaton bundle, as handed over by the
// modeling collaborator.
type BundleSpec struct {
	Component int            `yaml:"component"`
	Scenarios []ScenarioSpec `yaml:"scenarios"`
	Silent    []SilentSpec   `yaml:"silent"`
}

type ScenarioSpec struct {
	ID          string           `yaml:"id"`
	Initial     bool             `yaml:"initial"`
	Final       bool             `yaml:"final"`
	States      []StateSpec      `yaml:"states"`
	End         *int             `yaml:"end"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

type StateSpec struct {
	ID   int       `yaml:"id"`
	Type StateType `yaml:"type"`
}

// TransitionSpec refers to states by their id inside the enclosing scenario.
type TransitionSpec struct {
	From        int     `yaml:"from"`
	To          int     `yaml:"to"`
	Probability float64 `yaml:"probability"`
	Seq         int     `yaml:"seq"`
	Sender      int     `yaml:"sender"`
	Receiver    int     `yaml:"receiver"`
}

type StateAddr struct {
	Scenario string `yaml:"scenario"`
	State    int    `yaml:"state"`
}

type SilentSpec struct {
	From        StateAddr `yaml:"from"`
	To          StateAddr `yaml:"to"`
	Probability float64   `yaml:"probability"`
}

func ParseStateType(s string) (StateType, error) {
	for t := Initial; t <= Error; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return Intermediate, fmt.Errorf("unknown state type %q", s)
}

func (t *StateType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseStateType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t StateType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// DecodeSystem reads a SystemSpec document and builds one Automaton per component.
func DecodeSystem(r io.Reader) ([]*Automaton, error) {
	var spec SystemSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode system: %w", err)
	}
	bundles := make([]*Automaton, 0, len(spec.Components))
	for i, c := range spec.Components {
		a, err := c.Build()
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		bundles = append(bundles, a)
	}
	return bundles, nil
}

// Build creates the Automaton described by the spec.
func (b BundleSpec) Build() (*Automaton, error) {
	a := NewAutomaton(b.Component)
	addrs := make(map[StateAddr]int)

	for _, sc := range b.Scenarios {
		if err := a.AddScenario(sc.ID, sc.Initial, sc.Final); err != nil {
			return nil, err
		}
		for _, st := range sc.States {
			addr := StateAddr{Scenario: sc.ID, State: st.ID}
			if _, ok := addrs[addr]; ok {
				return nil, fmt.Errorf("scenario %q: duplicate state id %d", sc.ID, st.ID)
			}
			h, err := a.CreateState(sc.ID, st.ID, st.Type)
			if err != nil {
				return nil, err
			}
			addrs[addr] = h
		}
		if sc.End != nil {
			h, ok := addrs[StateAddr{Scenario: sc.ID, State: *sc.End}]
			if !ok {
				return nil, fmt.Errorf("scenario %q: unknown end state %d", sc.ID, *sc.End)
			}
			if err := a.SetEnd(sc.ID, h); err != nil {
				return nil, err
			}
		}
		for _, t := range sc.Transitions {
			from, ok := addrs[StateAddr{Scenario: sc.ID, State: t.From}]
			if !ok {
				return nil, fmt.Errorf("scenario %q: unknown state %d", sc.ID, t.From)
			}
			to, ok := addrs[StateAddr{Scenario: sc.ID, State: t.To}]
			if !ok {
				return nil, fmt.Errorf("scenario %q: unknown state %d", sc.ID, t.To)
			}
			_, err := a.AddTransition(Transition{
				Seq:         t.Seq,
				Probability: t.Probability,
				Scenario:    sc.ID,
				Owner:       b.Component,
				Sender:      t.Sender,
				Receiver:    t.Receiver,
				Source:      from,
				Dest:        to,
			})
			if err != nil {
				return nil, fmt.Errorf("scenario %q: %w", sc.ID, err)
			}
		}
	}

	for _, s := range b.Silent {
		from, ok := addrs[s.From]
		if !ok {
			return nil, fmt.Errorf("silent transition: unknown state %+v", s.From)
		}
		to, ok := addrs[s.To]
		if !ok {
			return nil, fmt.Errorf("silent transition: unknown state %+v", s.To)
		}
		if _, err := a.AddSilent(from, to, s.Probability); err != nil {
			return nil, err
		}
	}
	return a, nil
}
