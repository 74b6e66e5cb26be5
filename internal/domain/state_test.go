package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurationStateTransitions(t *testing.T) {
	cases := []struct {
		from CurationState
		to   CurationState
		ok   bool
	}{
		{StateSubmitted, StateCuration, true},
		{StateSubmitted, StateCanceled, true},
		{StateSubmitted, StatePublished, false},
		{StateSubmitted, StatePending, false},
		{StateCuration, StatePublished, true},
		{StateCuration, StatePending, true},
		{StateCuration, StateCanceled, true},
		{StateCuration, StateSubmitted, false},
		{StatePending, StateCuration, true},
		{StatePending, StateCanceled, true},
		{StatePending, StatePublished, false},
		{StatePublished, StateCuration, false},
		{StatePublished, StateCanceled, false},
		{StateCanceled, StateSubmitted, false},
		{StateCanceled, StatePublished, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to))
		})
	}
}

func TestCurationStateActive(t *testing.T) {
	assert.True(t, StateSubmitted.Active())
	assert.True(t, StateCuration.Active())
	assert.True(t, StatePending.Active())
	assert.False(t, StatePublished.Active())
	assert.False(t, StateCanceled.Active())
}

func TestActorRoles(t *testing.T) {
	assert.False(t, Anonymous.IsAuthenticated())
	assert.False(t, Anonymous.IsCurator())

	user := Actor{Login: "bob", Role: RoleGeneral}
	assert.True(t, user.IsAuthenticated())
	assert.False(t, user.IsCurator())

	curator := Actor{Login: "alice", Role: RoleCurator}
	assert.True(t, curator.IsCurator())

	admin := Actor{Login: "root", Role: RoleAdmin}
	assert.True(t, admin.IsCurator())
}
