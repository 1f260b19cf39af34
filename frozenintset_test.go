package lts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMemberKey(t *testing.T) {
	a := StateRef{Component: 0, Handle: 3}
	b := StateRef{Component: 1, Handle: 0}
	c := StateRef{Component: 2, Handle: 7}

	tests := []struct {
		name  string
		left  []StateRef
		right []StateRef
		equal bool
	}{
		{
			name:  "same order",
			left:  []StateRef{a, b, c},
			right: []StateRef{a, b, c},
			equal: true,
		},
		{
			name:  "permuted",
			left:  []StateRef{a, b, c},
			right: []StateRef{c, a, b},
			equal: true,
		},
		{
			name:  "different handle",
			left:  []StateRef{a, b, c},
			right: []StateRef{a, b, {Component: 2, Handle: 8}},
			equal: false,
		},
		{
			name:  "same handle in another component",
			left:  []StateRef{{Component: 0, Handle: 1}, {Component: 1, Handle: 2}},
			right: []StateRef{{Component: 0, Handle: 2}, {Component: 1, Handle: 1}},
			equal: false,
		},
		{
			name:  "different size",
			left:  []StateRef{a, b},
			right: []StateRef{a, b, c},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := NewMemberKey(tt.left), NewMemberKey(tt.right)
			assert.Equal(t, tt.equal, l.Equals(r))
			assert.Equal(t, tt.equal, r.Equals(l))
			if tt.equal {
				assert.Equal(t, l.Hash(), r.Hash())
			}
		})
	}
}

func TestMemberKey_EqualsOtherType(t *testing.T) {
	k := NewMemberKey([]StateRef{{Component: 0, Handle: 1}})
	assert.False(t, k.Equals(SyncKey{}))
	assert.Equal(t, 1, k.Size())
}

func TestSyncKey(t *testing.T) {
	k := SyncKey{Scenario: "sd", Seq: 1, Sender: 0, Receiver: 2}
	assert.True(t, k.Equals(SyncKey{Scenario: "sd", Seq: 1, Sender: 0, Receiver: 2}))
	assert.Equal(t, k.Hash(), SyncKey{Scenario: "sd", Seq: 1, Sender: 0, Receiver: 2}.Hash())
	assert.False(t, k.Equals(SyncKey{Scenario: "sd", Seq: 1, Sender: 2, Receiver: 0}))
	assert.False(t, k.Equals(NewMemberKey(nil)))
}

func TestSyncKey_ScenarioDistinguishesKeys(t *testing.T) {
	hm := NewHashMap[int](WithCapacity(4))
	for i, sc := range []string{"sd", "ds", "sd2", ""} {
		hm.Set(SyncKey{Scenario: sc, Sender: 0, Receiver: 1}, i)
	}
	assert.Equal(t, 4, hm.Size())

	v, ok := hm.Get(SyncKey{Scenario: "ds", Sender: 0, Receiver: 1})
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.NotEqual(t, SyncKey{Scenario: "sd"}.Hash(), SyncKey{Scenario: "ds"}.Hash())
}
