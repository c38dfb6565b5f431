package statemodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-monitor/internal/statemodel"
)

func TestStateTableResolve(t *testing.T) {
	table := statemodel.NewStateTable(3)
	require.Equal(t, 3, table.Size())
	require.NoError(t, table.Add(0, []statemodel.EventID{"a", "b"}, 1))
	require.NoError(t, table.Add(1, []statemodel.EventID{"a"}, 2))

	dest, ok := table.Resolve(0, "b")
	assert.True(t, ok)
	assert.Equal(t, statemodel.State(1), dest)

	dest, ok = table.Resolve(1, "a")
	assert.True(t, ok)
	assert.Equal(t, statemodel.State(2), dest)

	_, ok = table.Resolve(2, "a")
	assert.False(t, ok)
	_, ok = table.Resolve(7, "a")
	assert.False(t, ok)
}

func TestStateTableRejectsWithoutPartialMutation(t *testing.T) {
	table := statemodel.NewStateTable(3)
	require.NoError(t, table.Add(0, []statemodel.EventID{"a"}, 1))

	err := table.Add(0, []statemodel.EventID{"c", "d", "a"}, 2)
	require.ErrorIs(t, err, statemodel.ErrAmbiguousTransition)
	assert.Equal(t, 1, table.Count(0))
	_, ok := table.Resolve(0, "c")
	assert.False(t, ok, "no event of a rejected call may be mapped")

	err = table.Add(1, []statemodel.EventID{"x", "x"}, 2)
	require.ErrorIs(t, err, statemodel.ErrAmbiguousTransition)
	assert.Zero(t, table.Count(1))

	dest, ok := table.Resolve(0, "a")
	assert.True(t, ok)
	assert.Equal(t, statemodel.State(1), dest)
}

func TestStateTableBounds(t *testing.T) {
	table := statemodel.NewStateTable(2)

	require.ErrorIs(t, table.Add(2, []statemodel.EventID{"a"}, 0), statemodel.ErrStateOutOfRange)
	require.ErrorIs(t, table.Add(0, []statemodel.EventID{"a"}, 2), statemodel.ErrStateOutOfRange)
	require.ErrorIs(t, table.Add(-1, []statemodel.EventID{"a"}, 0), statemodel.ErrStateOutOfRange)
	require.ErrorIs(t, table.Add(0, []statemodel.EventID{}, 1), statemodel.ErrEmptyEventSet)
	assert.Zero(t, table.Count(0))
	assert.Zero(t, table.Count(5))
}

func TestStateTableSelfTransition(t *testing.T) {
	table := statemodel.NewStateTable(1)
	require.NoError(t, table.Add(0, []statemodel.EventID{"again"}, 0))

	dest, ok := table.Resolve(0, "again")
	assert.True(t, ok)
	assert.Equal(t, statemodel.State(0), dest)
}
