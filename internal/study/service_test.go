package study

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/emre-k/studyhall/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(st, nil, logger), st
}

func TestCreateJoinLeaderboardRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, lobbyID, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)
	require.Equal(t, Success, res)
	require.NotEmpty(t, lobbyID)

	res, err = svc.JoinLobby(ctx, "bob", "Algebra", "")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, standings, err := svc.Leaderboard(ctx, "Algebra")
	require.NoError(t, err)
	require.Equal(t, Success, res)
	require.Len(t, standings, 2)
	for _, s := range standings {
		require.Zero(t, s.AccumulatedSeconds)
	}
}

func TestCreatePrivateWithoutPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, _, err := svc.CreateLobby(ctx, "alice", "Secret", false, "")
	require.NoError(t, err)
	require.Equal(t, PasswordNotEntered, res)

	// nothing was created
	res, err = svc.JoinLobby(ctx, "bob", "Secret", "whatever")
	require.NoError(t, err)
	require.Equal(t, InvalidLobby, res)
}

func TestCreateDuplicateLobby(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, _, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, _, err = svc.CreateLobby(ctx, "bob", "Algebra", true, "")
	require.NoError(t, err)
	require.Equal(t, LobbyExists, res)
}

func TestPrivateLobbyCredential(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, _, err := svc.CreateLobby(ctx, "alice", "Secret", false, "open sesame")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, err = svc.JoinLobby(ctx, "bob", "Secret", "")
	require.NoError(t, err)
	require.Equal(t, InvalidPassword, res)

	res, err = svc.JoinLobby(ctx, "bob", "Secret", "wrong")
	require.NoError(t, err)
	require.Equal(t, InvalidPassword, res)

	res, err = svc.JoinLobby(ctx, "bob", "Secret", "open sesame")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, err = svc.JoinLobby(ctx, "bob", "Secret", "open sesame")
	require.NoError(t, err)
	require.Equal(t, UserAlreadyExistsInLobby, res)
}

func TestSlotQuota(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	for i := 0; i < store.MaxSlots; i++ {
		res, _, err := svc.CreateLobby(ctx, "alice", fmt.Sprintf("Room %d", i), true, "")
		require.NoError(t, err)
		require.Equal(t, Success, res)
	}

	res, _, err := svc.CreateLobby(ctx, "alice", "Room 11", true, "")
	require.NoError(t, err)
	require.Equal(t, UserHasNoFreeSlots, res)

	// an 11th lobby exists courtesy of bob; alice cannot join it either
	res, _, err = svc.CreateLobby(ctx, "bob", "Bob's Room", true, "")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, err = svc.JoinLobby(ctx, "alice", "Bob's Room", "")
	require.NoError(t, err)
	require.Equal(t, UserHasNoFreeSlots, res)

	n, err := st.SlotCount(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, store.MaxSlots, n)
}

func TestLeavePrivileges(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	_, lobbyID, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)
	res, err := svc.JoinLobby(ctx, "bob", "Algebra", "")
	require.NoError(t, err)
	require.Equal(t, Success, res)
	res, err = svc.JoinLobby(ctx, "carol", "Algebra", "")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	// a plain member cannot remove another member
	res, err = svc.LeaveLobby(ctx, "bob", "carol", "Algebra")
	require.NoError(t, err)
	require.Equal(t, InsufficientPrivileges, res)

	// both memberships and slots are untouched
	_, err = st.GetMembership(ctx, lobbyID, "carol")
	require.NoError(t, err)
	n, err := st.SlotCount(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// the admin can
	res, err = svc.LeaveLobby(ctx, "alice", "carol", "Algebra")
	require.NoError(t, err)
	require.Equal(t, Success, res)
	n, err = st.SlotCount(ctx, "carol")
	require.NoError(t, err)
	require.Zero(t, n)

	// so can the reserved system identity
	res, err = svc.LeaveLobby(ctx, SystemAdminID, "bob", "Algebra")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, err = svc.LeaveLobby(ctx, "alice", "bob", "Algebra")
	require.NoError(t, err)
	require.Equal(t, UserNotInLobby, res)
}

func TestDeleteLobbyCascade(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	_, _, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)
	res, err := svc.JoinLobby(ctx, "bob", "Algebra", "")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, err = svc.DeleteLobby(ctx, "bob", "Algebra")
	require.NoError(t, err)
	require.Equal(t, InsufficientPrivileges, res)

	res, err = svc.DeleteLobby(ctx, "alice", "Algebra")
	require.NoError(t, err)
	require.Equal(t, Success, res)

	res, err = svc.JoinLobby(ctx, "bob", "Algebra", "")
	require.NoError(t, err)
	require.Equal(t, InvalidLobby, res)

	for _, u := range []string{"alice", "bob"} {
		n, err := st.SlotCount(ctx, u)
		require.NoError(t, err)
		require.Zero(t, n)
	}
}

func TestSessionAccrual(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, _, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	res, err := svc.StartSession(ctx, "alice", "Algebra", t0)
	require.NoError(t, err)
	require.Equal(t, Success, res)

	// starting twice leaves the running session alone
	res, err = svc.StartSession(ctx, "alice", "Algebra", t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, ChronoAlreadyRunning, res)

	res, elapsed, err := svc.StopSession(ctx, "alice", "Algebra", t0.Add(125*time.Second))
	require.NoError(t, err)
	require.Equal(t, Success, res)
	require.EqualValues(t, 125, elapsed)

	res, _, err = svc.StopSession(ctx, "alice", "Algebra", t0.Add(200*time.Second))
	require.NoError(t, err)
	require.Equal(t, ChronoAlreadyNotRunning, res)

	res, standings, err := svc.Leaderboard(ctx, "Algebra")
	require.NoError(t, err)
	require.Equal(t, Success, res)
	require.Len(t, standings, 1)
	require.EqualValues(t, 125, standings[0].AccumulatedSeconds)
}

func TestSessionOutsideLobby(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	now := time.Now()

	res, err := svc.StartSession(ctx, "alice", "Nowhere", now)
	require.NoError(t, err)
	require.Equal(t, InvalidLobby, res)

	_, _, err = svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)

	res, err = svc.StartSession(ctx, "bob", "Algebra", now)
	require.NoError(t, err)
	require.Equal(t, UserNotInLobby, res)

	res, _, err = svc.StopSession(ctx, "bob", "Algebra", now)
	require.NoError(t, err)
	require.Equal(t, UserNotInLobby, res)
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, _, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)
	_, err = svc.JoinLobby(ctx, "bob", "Algebra", "")
	require.NoError(t, err)

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err = svc.StartSession(ctx, "bob", "Algebra", t0)
	require.NoError(t, err)
	_, _, err = svc.StopSession(ctx, "bob", "Algebra", t0.Add(10*time.Minute))
	require.NoError(t, err)

	_, err = svc.StartSession(ctx, "alice", "Algebra", t0)
	require.NoError(t, err)
	_, _, err = svc.StopSession(ctx, "alice", "Algebra", t0.Add(5*time.Minute))
	require.NoError(t, err)

	res, standings, err := svc.Leaderboard(ctx, "Algebra")
	require.NoError(t, err)
	require.Equal(t, Success, res)
	require.Equal(t, "bob", standings[0].UserID)
	require.Equal(t, "alice", standings[1].UserID)

	// a running session stays frozen at its last settled total
	_, err = svc.StartSession(ctx, "alice", "Algebra", t0)
	require.NoError(t, err)
	_, standings, err = svc.Leaderboard(ctx, "Algebra")
	require.NoError(t, err)
	require.EqualValues(t, 300, standings[1].AccumulatedSeconds)
}

func TestMyLobbies(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, _, err := svc.CreateLobby(ctx, "alice", "Algebra", true, "")
	require.NoError(t, err)
	_, _, err = svc.CreateLobby(ctx, "bob", "Biology", true, "")
	require.NoError(t, err)
	_, err = svc.JoinLobby(ctx, "alice", "Biology", "")
	require.NoError(t, err)

	names, err := svc.MyLobbies(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"Algebra", "Biology"}, names)

	names, err = svc.MyLobbies(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, names)
}
