package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthState_HappyPath(t *testing.T) {
	s := &authState{}

	require.NoError(t, s.fire(eventValidationStarted))
	assert.Equal(t, StateValidating, s.current)

	require.NoError(t, s.fire(eventValidationPassed))
	assert.Equal(t, StateAuthenticated, s.current)

	require.NoError(t, s.fire(eventValidationStarted))
	require.NoError(t, s.fire(eventRenewalRequired))
	assert.Equal(t, StateNeedsRenewal, s.current)

	require.NoError(t, s.fire(eventRenewalResolved))
	assert.Equal(t, StateAuthenticated, s.current)

	require.NoError(t, s.fire(eventSessionCleared))
	assert.Equal(t, StateUnauthenticated, s.current)
}

func TestAuthState_RenewalOnlyReachableThroughValidation(t *testing.T) {
	for _, from := range []State{StateUnauthenticated, StateAuthenticated, StateNeedsRenewal} {
		s := &authState{current: from, prev: from}
		assert.ErrorIs(t, s.fire(eventRenewalRequired), ErrInvalidTransition, from.String())
		assert.Equal(t, from, s.current, "failed fire must not move the state")
	}
}

func TestAuthState_InconclusiveRestoresPreviousState(t *testing.T) {
	for _, prev := range []State{StateUnauthenticated, StateAuthenticated, StateNeedsRenewal} {
		s := &authState{current: prev, prev: prev}
		require.NoError(t, s.fire(eventValidationStarted))
		require.NoError(t, s.fire(eventValidationInconclusive))
		assert.Equal(t, prev, s.current, prev.String())
	}
}

func TestAuthState_InconclusiveOutsideValidationIsIllegal(t *testing.T) {
	s := &authState{current: StateAuthenticated, prev: StateAuthenticated}
	assert.ErrorIs(t, s.fire(eventValidationInconclusive), ErrInvalidTransition)
}

func TestAuthState_ClearIsAlwaysLegal(t *testing.T) {
	for _, from := range []State{StateUnauthenticated, StateValidating, StateAuthenticated, StateNeedsRenewal} {
		s := &authState{current: from, prev: from}
		require.NoError(t, s.fire(eventSessionCleared), from.String())
		assert.Equal(t, StateUnauthenticated, s.current)
	}
}

func TestAuthState_LoginDuringValidationWins(t *testing.T) {
	s := &authState{current: StateAuthenticated, prev: StateAuthenticated}
	require.NoError(t, s.fire(eventValidationStarted))
	require.NoError(t, s.fire(eventLoginConfirmed))
	assert.Equal(t, StateAuthenticated, s.current)
}
