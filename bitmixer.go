package lts

import "github.com/cespare/xxhash/v2"

const (
	// Golden ratio bit mixer.
	PHI_C64 = uint64(0x9e3779b97f4a7c15)
)

// SyncKey identifies the two sides of one logical message exchange.
type SyncKey struct {
	Scenario string
	Seq      int
	Sender   int
	Receiver int
}

func (k SyncKey) Hash() uint64 {
	h := xxhash.Sum64String(k.Scenario)
	h ^= uint64(mix32(k.Seq))
	h = h*PHI_C64 + uint64(mix32(k.Sender))
	h = h*PHI_C64 + uint64(mix32(k.Receiver))
	return h ^ (h >> 32)
}

func (k SyncKey) Equals(other Hashable) bool {
	o, ok := other.(SyncKey)
	return ok && k == o
}

// MurmurHash3 32 bit finalizer.
func mix32(v int) uint32 {
	k := uint32(v)
	k = (k ^ (k >> 16)) * 0x85ebca6b
	k = (k ^ (k >> 13)) * 0xc2b2ae35
	return k ^ (k >> 16)
}
