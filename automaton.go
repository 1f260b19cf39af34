package lts

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// StateType classifies a state of a component automaton.
type StateType uint8

const (
	Initial StateType = iota
	Intermediate
	End
	Final
	Error
)

func (t StateType) String() string {
	switch t {
	case Initial:
		return "initial"
	case Intermediate:
		return "intermediate"
	case End:
		return "end"
	case Final:
		return "final"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("StateType(%d)", t)
	}
}

// State A node of a component automaton. Edges are kept as handle lists into the owning Automaton.
type State struct {
	ID        int
	Type      StateType
	Component int
	Scenario  string

	msgIn     []int
	msgOut    []int
	silentIn  []int
	silentOut []int
}

// Transition A message transition. Seq disambiguates repeated sends between the same ordered pair of
// components inside one scenario. Owner is the component whose automaton holds the edge, Sender and
// Receiver are the two ends of the exchanged message.
type Transition struct {
	Seq         int
	Probability float64
	Scenario    string
	Owner       int
	Sender      int
	Receiver    int
	Source      int
	Dest        int
}

// Key Returns the synchronization key shared by both sides of one message exchange.
func (t Transition) Key() SyncKey {
	return SyncKey{Scenario: t.Scenario, Seq: t.Seq, Sender: t.Sender, Receiver: t.Receiver}
}

// SilentTransition A glue edge between two scenario automata of the same component.
type SilentTransition struct {
	Probability float64
	Source      int
	Dest        int
}

type scenario struct {
	id      string
	initial bool
	final   bool
	states  []int
	end     int
}

// Automaton Represents one component's raw automaton bundle: every scenario automaton plus the silent
// transitions linking them. States and transitions are addressed by int handles that stay valid for the
// lifetime of the Automaton; removing something clears its liveness bit and detaches its handle from the
// lists of its endpoints, the slot itself is never reused.
type Automaton struct {
	component int

	states  []State
	msgs    []Transition
	silents []SilentTransition

	liveStates  *bitset.BitSet
	liveMsgs    *bitset.BitSet
	liveSilents *bitset.BitSet

	scenarios []*scenario
	byID      map[string]int
}

func NewAutomaton(component int) *Automaton {
	return NewAutomatonV1(component, 8, 8)
}

func NewAutomatonV1(component, numStates, numTransitions int) *Automaton {
	return &Automaton{
		component:   component,
		states:      make([]State, 0, numStates),
		msgs:        make([]Transition, 0, numTransitions),
		liveStates:  bitset.New(uint(numStates)),
		liveMsgs:    bitset.New(uint(numTransitions)),
		liveSilents: bitset.New(0),
		byID:        make(map[string]int),
	}
}

// Component Returns the index of the component this automaton belongs to.
func (a *Automaton) Component() int {
	return a.component
}

// AddScenario Registers a scenario automaton. initial marks the scenario holding the overall initial
// state, final the one holding the designated end state of the whole component.
func (a *Automaton) AddScenario(id string, initial, final bool) error {
	if _, ok := a.byID[id]; ok {
		return fmt.Errorf("scenario %q already added", id)
	}
	a.byID[id] = len(a.scenarios)
	a.scenarios = append(a.scenarios, &scenario{id: id, initial: initial, final: final, end: -1})
	return nil
}

// CreateState Create a new state inside the given scenario and return its handle.
func (a *Automaton) CreateState(scenarioID string, id int, typ StateType) (int, error) {
	idx, ok := a.byID[scenarioID]
	if !ok {
		return -1, fmt.Errorf("unknown scenario %q", scenarioID)
	}
	h := a.newState(id, typ, scenarioID)
	sc := a.scenarios[idx]
	sc.states = append(sc.states, h)
	return h, nil
}

// SetEnd Designates the end state of a scenario, overriding the End typed state lookup.
func (a *Automaton) SetEnd(scenarioID string, state int) error {
	idx, ok := a.byID[scenarioID]
	if !ok {
		return fmt.Errorf("unknown scenario %q", scenarioID)
	}
	if !slices.Contains(a.scenarios[idx].states, state) {
		return fmt.Errorf("state %d is not part of scenario %q", state, scenarioID)
	}
	a.scenarios[idx].end = state
	return nil
}

func (a *Automaton) newState(id int, typ StateType, scenarioID string) int {
	h := len(a.states)
	a.states = append(a.states, State{ID: id, Type: typ, Component: a.component, Scenario: scenarioID})
	a.liveStates.Set(uint(h))
	return h
}

// AddTransition Add a new message transition; t.Source and t.Dest must be live state handles.
func (a *Automaton) AddTransition(t Transition) (int, error) {
	if !a.IsLive(t.Source) || !a.IsLive(t.Dest) {
		return -1, fmt.Errorf("transition %d -> %d references an unknown state", t.Source, t.Dest)
	}
	if t.Probability < 0 || t.Probability > 1 {
		return -1, fmt.Errorf("transition %d -> %d has probability %v outside [0,1]", t.Source, t.Dest, t.Probability)
	}
	return a.addMsg(t), nil
}

// AddSilent Add a new silent transition between two states of this component.
func (a *Automaton) AddSilent(source, dest int, probability float64) (int, error) {
	if !a.IsLive(source) || !a.IsLive(dest) {
		return -1, fmt.Errorf("silent transition %d -> %d references an unknown state", source, dest)
	}
	if probability < 0 || probability > 1 {
		return -1, fmt.Errorf("silent transition %d -> %d has probability %v outside [0,1]", source, dest, probability)
	}
	return a.addSilent(SilentTransition{Probability: probability, Source: source, Dest: dest}), nil
}

func (a *Automaton) addMsg(t Transition) int {
	h := len(a.msgs)
	a.msgs = append(a.msgs, t)
	a.liveMsgs.Set(uint(h))
	a.states[t.Source].msgOut = append(a.states[t.Source].msgOut, h)
	a.states[t.Dest].msgIn = append(a.states[t.Dest].msgIn, h)
	return h
}

func (a *Automaton) addSilent(t SilentTransition) int {
	h := len(a.silents)
	a.silents = append(a.silents, t)
	a.liveSilents.Set(uint(h))
	a.states[t.Source].silentOut = append(a.states[t.Source].silentOut, h)
	a.states[t.Dest].silentIn = append(a.states[t.Dest].silentIn, h)
	return h
}

func (a *Automaton) removeMsg(h int) {
	if !a.liveMsgs.Test(uint(h)) {
		return
	}
	t := a.msgs[h]
	a.states[t.Source].msgOut = without(a.states[t.Source].msgOut, h)
	a.states[t.Dest].msgIn = without(a.states[t.Dest].msgIn, h)
	a.liveMsgs.Clear(uint(h))
}

func (a *Automaton) removeSilent(h int) {
	if !a.liveSilents.Test(uint(h)) {
		return
	}
	t := a.silents[h]
	a.states[t.Source].silentOut = without(a.states[t.Source].silentOut, h)
	a.states[t.Dest].silentIn = without(a.states[t.Dest].silentIn, h)
	a.liveSilents.Clear(uint(h))
}

// redirect re-points the destination of message transition h to state dest.
func (a *Automaton) redirect(h, dest int) {
	t := &a.msgs[h]
	if t.Dest == dest {
		return
	}
	a.states[t.Dest].msgIn = without(a.states[t.Dest].msgIn, h)
	t.Dest = dest
	a.states[dest].msgIn = append(a.states[dest].msgIn, h)
}

// removeState detaches every edge of s and marks it dead.
func (a *Automaton) removeState(s int) {
	st := &a.states[s]
	for _, h := range slices.Clone(st.silentIn) {
		a.removeSilent(h)
	}
	for _, h := range slices.Clone(st.silentOut) {
		a.removeSilent(h)
	}
	for _, h := range slices.Clone(st.msgIn) {
		a.removeMsg(h)
	}
	for _, h := range slices.Clone(st.msgOut) {
		a.removeMsg(h)
	}
	a.liveStates.Clear(uint(s))
}

// IsLive Returns true if the state handle refers to a state that has not been removed.
func (a *Automaton) IsLive(state int) bool {
	return state >= 0 && state < len(a.states) && a.liveStates.Test(uint(state))
}

// State Returns a copy of the state behind a handle.
func (a *Automaton) State(state int) State {
	return a.states[state]
}

// Transition Returns a copy of the message transition behind a handle.
func (a *Automaton) Transition(h int) Transition {
	return a.msgs[h]
}

// Silent Returns a copy of the silent transition behind a handle.
func (a *Automaton) Silent(h int) SilentTransition {
	return a.silents[h]
}

// GetNumStates How many live states this automaton has.
func (a *Automaton) GetNumStates() int {
	return int(a.liveStates.Count())
}

// GetNumTransitions How many live message transitions this automaton has.
func (a *Automaton) GetNumTransitions() int {
	return int(a.liveMsgs.Count())
}

// GetNumSilent How many live silent transitions this automaton has.
func (a *Automaton) GetNumSilent() int {
	return int(a.liveSilents.Count())
}

// States Returns the handles of all live states in ascending order.
func (a *Automaton) States() []int {
	return handles(a.liveStates)
}

// Out Returns the handles of the message transitions leaving a state.
func (a *Automaton) Out(state int) []int {
	return slices.Clone(a.states[state].msgOut)
}

// In Returns the handles of the message transitions entering a state.
func (a *Automaton) In(state int) []int {
	return slices.Clone(a.states[state].msgIn)
}

// SilentOut Returns the handles of the silent transitions leaving a state.
func (a *Automaton) SilentOut(state int) []int {
	return slices.Clone(a.states[state].silentOut)
}

// SilentIn Returns the handles of the silent transitions entering a state.
func (a *Automaton) SilentIn(state int) []int {
	return slices.Clone(a.states[state].silentIn)
}

func (a *Automaton) degree(state int) int {
	st := &a.states[state]
	return len(st.msgIn) + len(st.msgOut) + len(st.silentIn) + len(st.silentOut)
}

// scenarioEnd returns the designated end state of a scenario: the explicit one, the sole state of a
// scenario with fewer than two states, or its first End typed state.
func (a *Automaton) scenarioEnd(sc *scenario) int {
	if sc.end >= 0 {
		return sc.end
	}
	if len(sc.states) == 1 {
		return sc.states[0]
	}
	for _, s := range sc.states {
		if a.states[s].Type == End {
			return s
		}
	}
	return -1
}

func handles(b *bitset.BitSet) []int {
	out := make([]int, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

func without(list []int, h int) []int {
	return slices.DeleteFunc(list, func(x int) bool { return x == h })
}
