package chassis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineFullLifecycle(t *testing.T) {
	sm := newStateMachine()
	assert.Equal(t, StateNotInitialized, sm.current())

	require.NoError(t, sm.transition(StateNotOperational))
	require.NoError(t, sm.transition(StateStarting))
	require.NoError(t, sm.transition(StateOperational))
	require.NoError(t, sm.transition(StateShutdown))
	assert.Equal(t, StateShutdown, sm.current())
}

func TestStateMachineSkipStartingWhenNotStartable(t *testing.T) {
	sm := newStateMachine()
	require.NoError(t, sm.transition(StateNotOperational))
	require.NoError(t, sm.transition(StateOperational))
	assert.Equal(t, StateOperational, sm.current())
}

func TestStateMachineRejectsIllegalTransition(t *testing.T) {
	sm := newStateMachine()
	err := sm.transition(StateOperational)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestStateMachineShutdownIsTerminal(t *testing.T) {
	sm := newStateMachine()
	require.NoError(t, sm.transition(StateNotOperational))
	require.NoError(t, sm.transition(StateShutdown))
	assert.ErrorIs(t, sm.transition(StateOperational), ErrInvalidStateTransition)
}
