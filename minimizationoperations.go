package lts

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Minimize
// Reduces one component's raw automaton bundle to its minimal probabilistic automaton: all error markers
// are merged into one synthetic Error sink, a synthetic Final state is attached to the designated end
// state, glue states are folded away through their silent transitions, outgoing probabilities are
// normalized, identical states and parallel transitions are merged.
//
// Minimize mutates a; the returned MinimalLTS takes ownership of it.
func Minimize(a *Automaton, opts ...Option) (*MinimalLTS, error) {
	o := newOptions(opts...)
	log := o.logger.Sugar().With(zap.Int("component", a.component))

	initState, endState, err := a.entryAndEnd()
	if err != nil {
		return nil, err
	}
	log.Debugw("minimizing", "states", a.GetNumStates(), "transitions", a.GetNumTransitions(), "silent", a.GetNumSilent())

	errState := a.collapseErrors()

	// One success convergence point per component.
	finalState := a.newState(0, Final, "Final")
	a.addMsg(Transition{
		Probability: 1,
		Scenario:    "Final",
		Owner:       a.component,
		Sender:      a.component,
		Receiver:    a.component,
		Source:      endState,
		Dest:        finalState,
	})

	a.removeSelfLoops()
	a.fold(initState, true)
	for _, s := range a.States() {
		if s == initState || !a.IsLive(s) || a.states[s].Type != Initial {
			continue
		}
		a.removeSelfLoops()
		a.fold(s, false)
	}
	a.removeSelfLoops()
	if n := a.GetNumSilent(); n > 0 {
		return nil, structuralf("component %d keeps %d silent transitions after folding", a.component, n)
	}
	log.Debugw("folded silent transitions", "states", a.GetNumStates(), "transitions", a.GetNumTransitions())

	for _, s := range a.States() {
		if s != initState && a.degree(s) == 0 {
			a.liveStates.Clear(uint(s))
		}
	}
	if !a.IsLive(finalState) {
		return nil, structuralf("component %d: end state does not reach the final state", a.component)
	}

	if err := a.normalize(); err != nil {
		return nil, err
	}

	merged := a.combineIdenticalStates(initState, o.tolerance)
	a.combineIdenticalTransitions()
	log.Debugw("minimized", "states", a.GetNumStates(), "transitions", a.GetNumTransitions(), "mergedStates", merged)

	states := make([]int, 0, a.GetNumStates())
	states = append(states, initState)
	for _, s := range a.States() {
		if s != initState {
			states = append(states, s)
		}
	}
	if !a.IsLive(errState) {
		errState = -1
	}
	return &MinimalLTS{
		Component: a.component,
		States:    states,
		Initial:   initState,
		Final:     finalState,
		Error:     errState,
		graph:     a,
	}, nil
}

// MinimizeAll minimizes every component bundle, in order.
func MinimizeAll(bundles []*Automaton, opts ...Option) (*MinimalLTSCollection, error) {
	mins := make([]*MinimalLTS, 0, len(bundles))
	for i, b := range bundles {
		m, err := Minimize(b, opts...)
		if err != nil {
			return nil, fmt.Errorf("minimize component %d: %w", i, err)
		}
		mins = append(mins, m)
	}
	return NewMinimalLTSCollection(mins...), nil
}

// entryAndEnd locates the overall initial state and the designated end state of the component.
func (a *Automaton) entryAndEnd() (int, int, error) {
	var initSc, finalSc *scenario
	for _, sc := range a.scenarios {
		if sc.initial && initSc == nil {
			initSc = sc
		}
		if sc.final && finalSc == nil {
			finalSc = sc
		}
	}
	if initSc == nil {
		return -1, -1, structuralf("component %d has no initial scenario", a.component)
	}
	if finalSc == nil {
		return -1, -1, structuralf("component %d has no final scenario", a.component)
	}

	initState := -1
	for _, s := range initSc.states {
		if a.states[s].Type == Initial {
			initState = s
			break
		}
	}
	if initState < 0 {
		return -1, -1, structuralf("scenario %q of component %d has no initial state", initSc.id, a.component)
	}
	endState := a.scenarioEnd(finalSc)
	if endState < 0 {
		return -1, -1, structuralf("scenario %q of component %d has no end state", finalSc.id, a.component)
	}
	if a.states[endState].Type == Error {
		return -1, -1, structuralf("end state of scenario %q of component %d is an error state", finalSc.id, a.component)
	}
	return initState, endState, nil
}

// collapseErrors redirects every transition into an Error typed state to one synthetic sink and drops
// the per scenario error markers.
func (a *Automaton) collapseErrors() int {
	markers := make([]int, 0)
	for _, s := range a.States() {
		if a.states[s].Type == Error {
			markers = append(markers, s)
		}
	}
	sink := a.newState(-1, Error, "Error")
	for _, s := range markers {
		for _, h := range slices.Clone(a.states[s].msgIn) {
			a.redirect(h, sink)
		}
		a.removeState(s)
	}
	return sink
}

func (a *Automaton) removeSelfLoops() {
	for _, h := range handles(a.liveSilents) {
		if t := a.silents[h]; t.Source == t.Dest {
			a.removeSilent(h)
		}
	}
}

// fold splices state s out of the silent transition graph: every incoming silent edge is combined with
// every outgoing edge of s into a direct edge carrying the product of both probabilities. The protected
// state keeps its outgoing edges and only loses its incoming silent ones.
func (a *Automaton) fold(s int, protected bool) {
	ins := slices.Clone(a.states[s].silentIn)
	silentOuts := slices.Clone(a.states[s].silentOut)
	msgOuts := slices.Clone(a.states[s].msgOut)

	for _, hin := range ins {
		in := a.silents[hin]
		for _, hout := range silentOuts {
			out := a.silents[hout]
			a.addSilent(SilentTransition{
				Probability: in.Probability * out.Probability,
				Source:      in.Source,
				Dest:        out.Dest,
			})
		}
		for _, hout := range msgOuts {
			t := a.msgs[hout]
			t.Probability = in.Probability * t.Probability
			t.Source = in.Source
			a.addMsg(t)
		}
	}

	if protected {
		for _, h := range ins {
			a.removeSilent(h)
		}
		return
	}
	a.removeState(s)
}

func (a *Automaton) normalize() error {
	for _, s := range a.States() {
		outs := a.states[s].msgOut
		if len(outs) == 0 {
			continue
		}
		probs := make([]float64, len(outs))
		for i, h := range outs {
			probs[i] = a.msgs[h].Probability
		}
		sum := floats.Sum(probs)
		if sum <= 0 {
			return fmt.Errorf("%w: state %d (id %d, scenario %q) of component %d has outgoing probability sum %v",
				ErrDegenerateProbability, s, a.states[s].ID, a.states[s].Scenario, a.component, sum)
		}
		floats.Scale(1/sum, probs)
		for i, h := range outs {
			a.msgs[h].Probability = probs[i]
		}
	}
	return nil
}

// identical reports whether s1 and s2 have the same outgoing (destination, probability) multiset.
func (a *Automaton) identical(s1, s2 int, tolerance float64) bool {
	for _, s := range []int{s1, s2} {
		if t := a.states[s].Type; t == Final || t == Error {
			return false
		}
	}
	out1, out2 := a.states[s1].msgOut, a.states[s2].msgOut
	if len(out1) != len(out2) {
		return false
	}
	used := make([]bool, len(out2))
	for _, h1 := range out1 {
		t1 := a.msgs[h1]
		found := false
		for j, h2 := range out2 {
			t2 := a.msgs[h2]
			if used[j] || t1.Dest != t2.Dest || !scalar.EqualWithinAbs(t1.Probability, t2.Probability, tolerance) {
				continue
			}
			used[j] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// combineIdenticalStates merges identical states until none are left, returning how many were merged.
// The first state of each identical pair is kept; initial is always first.
func (a *Automaton) combineIdenticalStates(initial int, tolerance float64) int {
	total := 0
	for {
		order := make([]int, 0, a.GetNumStates())
		order = append(order, initial)
		for _, s := range a.States() {
			if s != initial {
				order = append(order, s)
			}
		}

		merged := 0
		for j := 1; j < len(order); j++ {
			drop := order[j]
			if !a.IsLive(drop) {
				continue
			}
			for _, keep := range order[:j] {
				if a.IsLive(keep) && a.identical(keep, drop, tolerance) {
					a.mergeInto(keep, drop)
					merged++
					break
				}
			}
		}
		total += merged
		if merged == 0 {
			return total
		}
	}
}

// mergeInto hands every incoming transition of drop to keep and removes drop together with its
// outgoing transitions.
func (a *Automaton) mergeInto(keep, drop int) {
	for _, h := range slices.Clone(a.states[drop].msgOut) {
		a.removeMsg(h)
	}
	for _, h := range slices.Clone(a.states[drop].msgIn) {
		a.redirect(h, keep)
	}
	a.liveStates.Clear(uint(drop))
}

type errorSignature struct {
	owner, sender, receiver int
	scenario                string
	seq                     int
}

// combineIdenticalTransitions merges parallel transitions by summing their probabilities: per
// destination for ordinary targets, per message signature for transitions into the Error sink.
func (a *Automaton) combineIdenticalTransitions() {
	for _, s := range a.States() {
		byDest := make(map[int][]int)
		bySig := make(map[errorSignature][]int)
		var dests []int
		var sigs []errorSignature
		for _, h := range a.states[s].msgOut {
			t := a.msgs[h]
			if a.states[t.Dest].Type == Error {
				sig := errorSignature{owner: t.Owner, sender: t.Sender, receiver: t.Receiver, scenario: t.Scenario, seq: t.Seq}
				if _, ok := bySig[sig]; !ok {
					sigs = append(sigs, sig)
				}
				bySig[sig] = append(bySig[sig], h)
				continue
			}
			if _, ok := byDest[t.Dest]; !ok {
				dests = append(dests, t.Dest)
			}
			byDest[t.Dest] = append(byDest[t.Dest], h)
		}
		for _, d := range dests {
			a.combineTransitions(byDest[d])
		}
		for _, sig := range sigs {
			a.combineTransitions(bySig[sig])
		}
	}
}

func (a *Automaton) combineTransitions(hs []int) {
	if len(hs) < 2 {
		return
	}
	probs := make([]float64, len(hs))
	for i, h := range hs {
		probs[i] = a.msgs[h].Probability
	}
	a.msgs[hs[0]].Probability = floats.Sum(probs)
	for _, h := range hs[1:] {
		a.removeMsg(h)
	}
}
