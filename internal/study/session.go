// internal/study/session.go
package study

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/emre-k/studyhall/internal/store"
)

// sessionEngine is the chronometer state machine for one (lobby, user) pair.
// A membership is either Idle (IsRunning false, no start timestamp) or
// Running (IsRunning true, SessionStartedAt set); start and stop are the only
// transitions. The lobby-existence check happens in the service before the
// engine runs.
type sessionEngine struct {
	store store.Store
}

// start moves Idle -> Running, recording now as the session start.
func (e sessionEngine) start(ctx context.Context, lobbyID, userID string, now time.Time) (Result, error) {
	m, err := e.store.GetMembership(ctx, lobbyID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return UserNotInLobby, nil
	}
	if err != nil {
		return UnwantedBehavior, err
	}
	if m.IsRunning {
		return ChronoAlreadyRunning, nil
	}
	if err := e.store.StartSession(ctx, lobbyID, userID, now); err != nil {
		return UnwantedBehavior, err
	}
	return Success, nil
}

// stop moves Running -> Idle and returns the elapsed whole seconds credited
// to the membership. The delta is floor(now - startedAt) and is deliberately
// not clamped: a now earlier than the recorded start (clock skew) yields a
// negative credit, applied as-is.
func (e sessionEngine) stop(ctx context.Context, lobbyID, userID string, now time.Time) (Result, int64, error) {
	m, err := e.store.GetMembership(ctx, lobbyID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return UserNotInLobby, 0, nil
	}
	if err != nil {
		return UnwantedBehavior, 0, err
	}
	if !m.IsRunning {
		return ChronoAlreadyNotRunning, 0, nil
	}
	if m.SessionStartedAt == nil {
		// running with no start timestamp violates the membership invariant
		return UnwantedBehavior, 0, nil
	}

	elapsed := int64(math.Floor(now.Sub(*m.SessionStartedAt).Seconds()))
	if err := e.store.SettleSession(ctx, lobbyID, userID, elapsed); err != nil {
		return UnwantedBehavior, 0, err
	}
	return Success, elapsed, nil
}
