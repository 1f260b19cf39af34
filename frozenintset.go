package lts

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// StateRef addresses a state of one component's minimal automaton.
type StateRef struct {
	Component int
	Handle    int
}

func (r StateRef) pack() uint64 {
	return uint64(uint32(r.Component))<<32 | uint64(uint32(r.Handle))
}

var _ Hashable = MemberKey{}

// MemberKey is the frozen, order independent identity of a composite state: its member references
// packed and sorted, with a precomputed hash.
type MemberKey struct {
	values   []uint64
	hashCode uint64
}

func NewMemberKey(members []StateRef) MemberKey {
	values := make([]uint64, len(members))
	for i, m := range members {
		values[i] = m.pack()
	}
	slices.Sort(values)

	buf := make([]byte, 0, 8*len(values))
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return MemberKey{values: values, hashCode: xxhash.Sum64(buf)}
}

func (f MemberKey) Hash() uint64 {
	return f.hashCode
}

func (f MemberKey) Equals(other Hashable) bool {
	o, ok := other.(MemberKey)
	if !ok {
		return false
	}
	return f.hashCode == o.hashCode && slices.Equal(f.values, o.values)
}

func (f MemberKey) Size() int {
	return len(f.values)
}
