package lts

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// gathered is a message transition leaving the member at position member of a composite state.
type gathered struct {
	member int
	t      Transition
}

type sides struct {
	senders   []gathered
	receivers []gathered
}

type composer struct {
	mins     []*MinimalLTS
	opts     *options
	log      *zap.SugaredLogger
	explored *HashMap[*CompositeState]
}

// Compose
// Builds the composite automaton of a system by breadth first exploration of the synchronized product
// of its components' minimal automata. Two member transitions synchronize when they share a SyncKey and
// come from the sender and the receiver side of it; the successor replaces both members by the
// transitions' destinations and carries the product of their probabilities. Every synchronized pair also
// emits an error transition weighted by the sender's probability times its error alternative.
//
// Compose never mutates the minimal automata.
func Compose(c *MinimalLTSCollection, opts ...Option) (*CompositeAutomaton, error) {
	if err := c.Validate(0); err != nil {
		return nil, err
	}
	o := newOptions(opts...)
	cp := &composer{
		mins:     c.MinimalLTSs,
		opts:     o,
		log:      o.logger.Sugar().With(zap.Int("components", len(c.MinimalLTSs)), zap.Stringer("finalPolicy", o.finalPolicy)),
		explored: NewHashMap[*CompositeState](WithCapacity(64)),
	}

	initMembers := make([]StateRef, len(cp.mins))
	for i, m := range cp.mins {
		initMembers[i] = StateRef{Component: i, Handle: m.Initial}
	}
	start := cp.newComposite(initMembers)
	cp.explored.Set(start.key, start)

	result := &CompositeAutomaton{Initial: start, index: cp.explored}
	frontier := []*CompositeState{start}
	for len(frontier) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		result.States = append(result.States, node)
		if node.terminal {
			continue
		}

		trans, err := cp.successors(node)
		if err != nil {
			return nil, err
		}
		for _, t := range trans {
			node.Out = append(node.Out, t)
			if t.Error {
				continue
			}
			if existing, ok := cp.explored.Get(t.Target.key); ok {
				t.Target = existing
				continue
			}
			cp.explored.Set(t.Target.key, t.Target)
			frontier = append(frontier, t.Target)
		}
	}
	cp.log.Debugw("explored composite states", "states", len(result.States), "indexed", cp.explored.Size())

	if final, ok := cp.explored.Get(cp.finalComposite().key); ok {
		result.Final = final
	}
	if err := normalizeComposite(result.States); err != nil {
		return nil, err
	}
	removed := eliminateDuplicateStates(result)
	cp.log.Debugw("composed", "states", len(result.States), "transitions", result.NumTransitions(), "collapsedFinalRoutes", removed)
	return result, nil
}

func (cp *composer) newComposite(members []StateRef) *CompositeState {
	terminal := false
	for i, m := range members {
		if cp.mins[i].Type(m.Handle) == Final {
			terminal = true
			break
		}
	}
	return newCompositeState(members, terminal)
}

func (cp *composer) finalComposite() *CompositeState {
	members := make([]StateRef, len(cp.mins))
	for i, m := range cp.mins {
		members[i] = StateRef{Component: i, Handle: m.Final}
	}
	return cp.newComposite(members)
}

// converges applies the final policy to the transitions gathered from a composite state.
func (cp *composer) converges(all []gathered) bool {
	switch cp.opts.finalPolicy {
	case FinalOnAll:
		reached := make(map[int]struct{})
		for _, g := range all {
			if cp.mins[g.member].Type(g.t.Dest) == Final {
				reached[g.member] = struct{}{}
			}
		}
		return len(reached) == len(cp.mins)
	default:
		for _, g := range all {
			if cp.mins[g.member].Type(g.t.Dest) == Final && g.t.Probability == 1.0 {
				return true
			}
		}
		return false
	}
}

func (cp *composer) successors(node *CompositeState) ([]*CompositeTransition, error) {
	var all []gathered
	for i, m := range node.Members {
		for _, t := range cp.mins[i].Out(m.Handle) {
			all = append(all, gathered{member: i, t: t})
		}
	}

	if cp.converges(all) {
		return []*CompositeTransition{{Source: node, Target: cp.finalComposite(), Probability: 1}}, nil
	}

	errs := NewHashMap[[]gathered]()
	pairs := NewHashMap[*sides]()
	var keys []SyncKey
	for _, g := range all {
		key := g.t.Key()
		switch cp.mins[g.member].Type(g.t.Dest) {
		case Final:
			continue
		case Error:
			list, _ := errs.Get(key)
			errs.Set(key, append(list, g))
			continue
		}

		sd, ok := pairs.Get(key)
		if !ok {
			sd = &sides{}
			pairs.Set(key, sd)
			keys = append(keys, key)
		}
		switch {
		case g.t.Owner == g.t.Sender && g.t.Owner != g.t.Receiver:
			sd.senders = append(sd.senders, g)
		case g.t.Owner == g.t.Receiver && g.t.Owner != g.t.Sender:
			sd.receivers = append(sd.receivers, g)
		default:
			return nil, &SyncError{Key: key, Reason: fmt.Sprintf("transition of component %d is neither the sending nor the receiving side", g.t.Owner)}
		}
	}

	var out []*CompositeTransition
	for _, key := range keys {
		sd, _ := pairs.Get(key)
		if len(sd.senders) == 0 || len(sd.receivers) == 0 {
			return nil, &SyncError{Key: key, Reason: "no synchronization partner"}
		}
		alt, ok := senderErrorAlternative(errs, key)
		if !ok {
			return nil, &SyncError{Key: key, Reason: "no error alternative on the sending side"}
		}
		for _, s := range sd.senders {
			for _, r := range sd.receivers {
				members := slices.Clone(node.Members)
				members[s.member].Handle = s.t.Dest
				members[r.member].Handle = r.t.Dest
				out = append(out,
					&CompositeTransition{Source: node, Target: cp.newComposite(members), Probability: s.t.Probability * r.t.Probability},
					&CompositeTransition{Source: node, Probability: s.t.Probability * alt.t.Probability, Error: true},
				)
			}
		}
	}
	return out, nil
}

func senderErrorAlternative(errs *HashMap[[]gathered], key SyncKey) (gathered, bool) {
	list, _ := errs.Get(key)
	for _, g := range list {
		if g.t.Owner == key.Sender {
			return g, true
		}
	}
	return gathered{}, false
}

func normalizeComposite(states []*CompositeState) error {
	for _, s := range states {
		if len(s.Out) == 0 {
			continue
		}
		probs := make([]float64, len(s.Out))
		for i, t := range s.Out {
			probs[i] = t.Probability
		}
		sum := floats.Sum(probs)
		if sum <= 0 {
			return fmt.Errorf("%w: composite state %v has outgoing probability sum %v", ErrDegenerateProbability, s.Members, sum)
		}
		floats.Scale(1/sum, probs)
		for i, t := range s.Out {
			t.Probability = probs[i]
		}
	}
	return nil
}

// eliminateDuplicateStates keeps a single composite state among those whose sole transition leads to
// the global Final state and returns how many were removed.
func eliminateDuplicateStates(c *CompositeAutomaton) int {
	if c.Final == nil {
		return 0
	}
	var routes []*CompositeState
	for _, s := range c.States {
		if len(s.Out) == 1 && s.Out[0].Target == c.Final {
			routes = append(routes, s)
		}
	}
	if len(routes) < 2 {
		return 0
	}
	rep := routes[0]
	dups := make(map[*CompositeState]struct{}, len(routes)-1)
	for _, d := range routes[1:] {
		dups[d] = struct{}{}
	}
	for _, s := range c.States {
		for _, t := range s.Out {
			if _, ok := dups[t.Target]; ok {
				t.Target = rep
			}
		}
	}
	c.States = slices.DeleteFunc(c.States, func(s *CompositeState) bool {
		_, ok := dups[s]
		return ok
	})
	for d := range dups {
		c.index.Delete(d.key)
	}
	return len(dups)
}
