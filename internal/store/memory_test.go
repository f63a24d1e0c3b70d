package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/emre-k/studyhall/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSlotCapAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < MaxSlots; i++ {
		ok, err := s.OccupySlot(ctx, "u1", fmt.Sprintf("lobby-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := s.OccupySlot(ctx, "u1", "lobby-overflow")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.SlotCount(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, MaxSlots, n)

	// releasing frees the earliest matching slot, which the next occupy reuses
	released, err := s.ReleaseSlot(ctx, "u1", "lobby-3")
	require.NoError(t, err)
	require.True(t, released)

	ok, err = s.OccupySlot(ctx, "u1", "lobby-new")
	require.NoError(t, err)
	require.True(t, ok)

	ids, err := s.ListSlots(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "lobby-new", ids[3])
}

func TestOccupySlotNotIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 2; i++ {
		ok, err := s.OccupySlot(ctx, "u1", "same-lobby")
		require.NoError(t, err)
		require.True(t, ok)
	}
	n, err := s.SlotCount(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestAddMemberAtomicWithSlot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	lobby := &models.Lobby{ID: "l1", Name: "Algebra", IsPublic: true}
	require.NoError(t, s.CreateLobby(ctx, lobby, "creator"))

	require.NoError(t, s.AddMember(ctx, "l1", "u2"))
	require.ErrorIs(t, s.AddMember(ctx, "l1", "u2"), ErrDuplicate)

	// the duplicate attempt must not have burned a second slot
	n, err := s.SlotCount(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCreateLobbyPartialRecovery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	lobby := &models.Lobby{ID: "l1", Name: "Algebra", IsPublic: true}
	require.NoError(t, s.CreateLobby(ctx, lobby, "creator"))
	ok, err := s.OccupySlot(ctx, "creator", "l1")
	require.NoError(t, err)
	require.True(t, ok)
	require.ErrorIs(t, s.CreateLobby(ctx, lobby, "creator"), ErrDuplicate)

	// a catalog row whose membership table is empty counts as not existing
	require.NoError(t, s.RemoveMember(ctx, "l1", "creator"))
	require.NoError(t, s.CreateLobby(ctx, lobby, "creator"))
}

func TestDeleteLobbyCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	lobby := &models.Lobby{ID: "l1", Name: "Algebra", IsPublic: true}
	require.NoError(t, s.CreateLobby(ctx, lobby, "creator"))
	ok, err := s.OccupySlot(ctx, "creator", "l1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.AddMember(ctx, "l1", "u2"))

	require.NoError(t, s.DeleteLobby(ctx, "l1"))

	_, err = s.GetLobby(ctx, "l1")
	require.ErrorIs(t, err, ErrNotFound)
	for _, u := range []string{"creator", "u2"} {
		n, err := s.SlotCount(ctx, u)
		require.NoError(t, err)
		require.Zero(t, n, "slots for %s should be released", u)
	}
}
