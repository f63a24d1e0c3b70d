// internal/study/service.go
package study

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emre-k/studyhall/internal/auth"
	"github.com/emre-k/studyhall/internal/cache"
	"github.com/emre-k/studyhall/internal/hash"
	"github.com/emre-k/studyhall/internal/models"
	"github.com/emre-k/studyhall/internal/store"
)

// SystemAdminID is the reserved identity the service itself acts under. It is
// treated as admin of every lobby without a membership lookup.
const SystemAdminID = "admin"

// Service orchestrates the store, the slot quota, and the chronometer into
// the operations the command front end calls. The front end passes raw lobby
// names; the service resolves them to ids.
//
// Each operation runs to completion or fails outright; retries belong to the
// caller.
type Service struct {
	store  store.Store
	boards *cache.Leaderboard
	log    *logrus.Logger
	engine sessionEngine
}

// NewService builds a Service on the given store. boards may be nil to run
// without a leaderboard cache.
func NewService(st store.Store, boards *cache.Leaderboard, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		store:  st,
		boards: boards,
		log:    logger,
		engine: sessionEngine{store: st},
	}
}

// CreateLobby registers a new lobby and makes the creator its admin,
// occupying one of the creator's slots. The quota is checked before anything
// else; a private lobby without a password is rejected before touching the
// store.
func (s *Service) CreateLobby(ctx context.Context, userID, name string, isPublic bool, password string) (Result, string, error) {
	free, err := s.hasFreeSlot(ctx, userID)
	if err != nil {
		return UnwantedBehavior, "", err
	}
	if !free {
		return UserHasNoFreeSlots, "", nil
	}

	if !isPublic && password == "" {
		return PasswordNotEntered, "", nil
	}

	lobby := &models.Lobby{
		ID:       hash.LobbyID(name),
		Name:     name,
		IsPublic: isPublic,
	}
	if !isPublic {
		digest, err := auth.HashCredential(password, auth.Params)
		if err != nil {
			return UnwantedBehavior, "", err
		}
		lobby.CredentialDigest = digest
	}

	if err := s.store.CreateLobby(ctx, lobby, userID); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return LobbyExists, "", nil
		}
		return UnwantedBehavior, "", err
	}

	occupied, err := s.store.OccupySlot(ctx, userID, lobby.ID)
	if err != nil {
		return UnwantedBehavior, "", err
	}
	if !occupied {
		// quota was checked above, so a full slot table here means the
		// cross-table consistency broke
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"lobby":   name,
		}).Error("created lobby but creator has no free slot")
		return UnwantedBehavior, "", nil
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"lobby":   name,
		"public":  isPublic,
	}).Info("lobby created")
	return Success, lobby.ID, nil
}

// JoinLobby admits a user into an existing lobby. Check order: slot quota,
// lobby existence, credential (private lobbies only), duplicate membership.
// The slot occupation and membership insert happen in one atomic store call.
func (s *Service) JoinLobby(ctx context.Context, userID, name, password string) (Result, error) {
	free, err := s.hasFreeSlot(ctx, userID)
	if err != nil {
		return UnwantedBehavior, err
	}
	if !free {
		return UserHasNoFreeSlots, nil
	}

	lobbyID := hash.LobbyID(name)
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return InvalidLobby, nil
	}
	if err != nil {
		return UnwantedBehavior, err
	}

	if !lobby.IsPublic {
		if lobby.CredentialDigest == "" {
			s.log.WithField("lobby", name).Error("private lobby has no credential digest")
			return UnwantedBehavior, nil
		}
		if password == "" {
			return InvalidPassword, nil
		}
		ok, err := auth.VerifyCredential(password, lobby.CredentialDigest)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"lobby": name,
				"error": err,
			}).Error("stored credential digest is unreadable")
			return UnwantedBehavior, nil
		}
		if !ok {
			return InvalidPassword, nil
		}
	}

	if _, err := s.store.GetMembership(ctx, lobbyID, userID); err == nil {
		return UserAlreadyExistsInLobby, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return UnwantedBehavior, err
	}

	switch err := s.store.AddMember(ctx, lobbyID, userID); {
	case err == nil:
	case errors.Is(err, store.ErrDuplicate):
		return UserAlreadyExistsInLobby, nil
	case errors.Is(err, store.ErrNoFreeSlot):
		return UserHasNoFreeSlots, nil
	case errors.Is(err, store.ErrNotFound):
		return InvalidLobby, nil
	default:
		return UnwantedBehavior, err
	}

	s.invalidateBoard(ctx, lobbyID)
	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"lobby":   name,
	}).Info("user joined lobby")
	return Success, nil
}

// LeaveLobby removes removeeID from the lobby. Only a lobby admin (or the
// reserved system identity) may remove members, including themselves.
func (s *Service) LeaveLobby(ctx context.Context, removerID, removeeID, name string) (Result, error) {
	lobbyID := hash.LobbyID(name)
	if _, err := s.store.GetLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, nil
		}
		return UnwantedBehavior, err
	}

	admin, err := s.isAdmin(ctx, removerID, lobbyID)
	if err != nil {
		return UnwantedBehavior, err
	}
	if !admin {
		return InsufficientPrivileges, nil
	}

	if err := s.store.RemoveMember(ctx, lobbyID, removeeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return UserNotInLobby, nil
		}
		return UnwantedBehavior, err
	}

	s.invalidateBoard(ctx, lobbyID)
	s.log.WithFields(logrus.Fields{
		"remover": removerID,
		"removee": removeeID,
		"lobby":   name,
	}).Info("user removed from lobby")
	return Success, nil
}

// DeleteLobby destroys the lobby, its membership table, and every slot its
// members held. Admin only.
func (s *Service) DeleteLobby(ctx context.Context, requesterID, name string) (Result, error) {
	lobbyID := hash.LobbyID(name)
	if _, err := s.store.GetLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, nil
		}
		return UnwantedBehavior, err
	}

	admin, err := s.isAdmin(ctx, requesterID, lobbyID)
	if err != nil {
		return UnwantedBehavior, err
	}
	if !admin {
		return InsufficientPrivileges, nil
	}

	if err := s.store.DeleteLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, nil
		}
		return UnwantedBehavior, err
	}

	s.invalidateBoard(ctx, lobbyID)
	s.log.WithFields(logrus.Fields{
		"requester": requesterID,
		"lobby":     name,
	}).Info("lobby deleted")
	return Success, nil
}

// StartSession starts the caller's chronometer in the lobby.
func (s *Service) StartSession(ctx context.Context, userID, name string, now time.Time) (Result, error) {
	lobbyID := hash.LobbyID(name)
	if _, err := s.store.GetLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, nil
		}
		return UnwantedBehavior, err
	}
	return s.engine.start(ctx, lobbyID, userID, now)
}

// StopSession stops the caller's chronometer and returns the credited whole
// seconds (negative under clock skew, by design of the engine).
func (s *Service) StopSession(ctx context.Context, userID, name string, now time.Time) (Result, int64, error) {
	lobbyID := hash.LobbyID(name)
	if _, err := s.store.GetLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, 0, nil
		}
		return UnwantedBehavior, 0, err
	}

	res, elapsed, err := s.engine.stop(ctx, lobbyID, userID, now)
	if res == UnwantedBehavior && err == nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"lobby":   name,
		}).Error("membership is running without a session start timestamp")
	}
	if res == Success {
		s.invalidateBoard(ctx, lobbyID)
	}
	return res, elapsed, err
}

// MyLobbies resolves the user's occupied slots to lobby names, in slot order.
func (s *Service) MyLobbies(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.store.ListSlots(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		lobby, err := s.store.GetLobby(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			// a slot pointing at a deleted lobby is a consistency defect;
			// surface it in the logs but keep the listing usable
			s.log.WithFields(logrus.Fields{
				"user_id":  userID,
				"lobby_id": id,
			}).Error("slot references a missing lobby")
			continue
		}
		if err != nil {
			return nil, err
		}
		names = append(names, lobby.Name)
	}
	return names, nil
}

// Leaderboard returns the members of the lobby sorted by accumulated time,
// descending. Running sessions contribute nothing until they stop; this is a
// frozen snapshot.
func (s *Service) Leaderboard(ctx context.Context, name string) (Result, []models.Standing, error) {
	lobbyID := hash.LobbyID(name)
	if _, err := s.store.GetLobby(ctx, lobbyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, nil, nil
		}
		return UnwantedBehavior, nil, err
	}

	if standings, ok := s.boards.Get(ctx, lobbyID); ok {
		return Success, standings, nil
	}

	members, err := s.store.ListMembers(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvalidLobby, nil, nil
		}
		return UnwantedBehavior, nil, err
	}

	standings := make([]models.Standing, 0, len(members))
	for _, m := range members {
		standings = append(standings, models.Standing{
			UserID:             m.UserID,
			AccumulatedSeconds: m.AccumulatedSeconds,
		})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].AccumulatedSeconds != standings[j].AccumulatedSeconds {
			return standings[i].AccumulatedSeconds > standings[j].AccumulatedSeconds
		}
		return standings[i].UserID < standings[j].UserID
	})

	if err := s.boards.Set(ctx, lobbyID, standings); err != nil {
		s.log.WithField("error", err).Debug("leaderboard cache set failed")
	}
	return Success, standings, nil
}

// isAdmin reports whether userID may administrate the lobby. The reserved
// system identity bypasses the membership lookup.
func (s *Service) isAdmin(ctx context.Context, userID, lobbyID string) (bool, error) {
	if userID == SystemAdminID {
		return true, nil
	}
	m, err := s.store.GetMembership(ctx, lobbyID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsAdmin, nil
}

func (s *Service) hasFreeSlot(ctx context.Context, userID string) (bool, error) {
	n, err := s.store.SlotCount(ctx, userID)
	if err != nil {
		return false, err
	}
	return n < store.MaxSlots, nil
}

func (s *Service) invalidateBoard(ctx context.Context, lobbyID string) {
	if err := s.boards.Invalidate(ctx, lobbyID); err != nil {
		s.log.WithField("error", err).Debug("leaderboard cache invalidation failed")
	}
}
