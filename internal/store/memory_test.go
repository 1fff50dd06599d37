package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_DisplayNames(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	name, err := m.DisplayName(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, m.SetDisplayName(ctx, "u1", "Alice"))
	name, err = m.DisplayName(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
}

func TestMemory_RecoveryRows(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	info, err := m.GetActiveMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, info)

	saved := RecoveryInfo{
		LobbyID:         "AB2CDE",
		GameType:        "501",
		ConnectedIDs:    []string{"u1"},
		DisconnectedIDs: []string{"u2"},
		DisplayNames:    map[string]string{"u1": "Alice", "u2": "Bob"},
	}
	require.NoError(t, m.SaveActiveMatch(ctx, "m1", saved))

	info, err = m.GetActiveMatch(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, saved, *info)

	require.NoError(t, m.ClearActiveMatch(ctx, "m1"))
	info, err = m.GetActiveMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestMemory_UserMatchBinding(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SetUserActiveMatch(ctx, "u1", "m1"))
	id, err := m.GetUserActiveMatch(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	require.NoError(t, m.SetUserActiveMatch(ctx, "u1", ""))
	id, err = m.GetUserActiveMatch(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, id)
}
