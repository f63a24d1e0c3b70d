// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/emre-k/studyhall/internal/models"
)

// MemoryStore keeps the whole catalog in process memory behind one mutex.
// It backs the test suites and the DB-less dev mode; the postgres store in
// internal/database is the production implementation.
type MemoryStore struct {
	mu      sync.Mutex
	lobbies map[string]models.Lobby
	members map[string]map[string]*models.Membership
	slots   map[string]*[MaxSlots]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[string]models.Lobby),
		members: make(map[string]map[string]*models.Membership),
		slots:   make(map[string]*[MaxSlots]string),
	}
}

func (s *MemoryStore) CreateLobby(_ context.Context, lobby *models.Lobby, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lobbies[lobby.ID]; ok && len(s.members[lobby.ID]) > 0 {
		return ErrDuplicate
	}

	s.lobbies[lobby.ID] = *lobby
	s.members[lobby.ID] = map[string]*models.Membership{
		creatorID: {
			LobbyID: lobby.ID,
			UserID:  creatorID,
			IsAdmin: true,
		},
	}
	return nil
}

func (s *MemoryStore) GetLobby(_ context.Context, lobbyID string) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *MemoryStore) DeleteLobby(_ context.Context, lobbyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lobbies[lobbyID]; !ok {
		return ErrNotFound
	}
	for userID := range s.members[lobbyID] {
		s.releaseLocked(userID, lobbyID)
	}
	delete(s.members, lobbyID)
	delete(s.lobbies, lobbyID)
	return nil
}

func (s *MemoryStore) GetMembership(_ context.Context, lobbyID, userID string) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[lobbyID][userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ListMembers(_ context.Context, lobbyID string) ([]models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lobbies[lobbyID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]models.Membership, 0, len(s.members[lobbyID]))
	for _, m := range s.members[lobbyID] {
		out = append(out, *m)
	}
	return out, nil
}

func (s *MemoryStore) AddMember(_ context.Context, lobbyID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.members[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := tbl[userID]; ok {
		return ErrDuplicate
	}
	if !s.occupyLocked(userID, lobbyID) {
		return ErrNoFreeSlot
	}
	tbl[userID] = &models.Membership{LobbyID: lobbyID, UserID: userID}
	return nil
}

func (s *MemoryStore) RemoveMember(_ context.Context, lobbyID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.members[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := tbl[userID]; !ok {
		return ErrNotFound
	}
	if !s.releaseLocked(userID, lobbyID) {
		return ErrNotFound
	}
	delete(tbl, userID)
	return nil
}

func (s *MemoryStore) StartSession(_ context.Context, lobbyID, userID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[lobbyID][userID]
	if !ok {
		return ErrNotFound
	}
	at := startedAt
	m.IsRunning = true
	m.SessionStartedAt = &at
	return nil
}

func (s *MemoryStore) SettleSession(_ context.Context, lobbyID, userID string, elapsed int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[lobbyID][userID]
	if !ok {
		return ErrNotFound
	}
	m.IsRunning = false
	m.SessionStartedAt = nil
	m.AccumulatedSeconds += elapsed
	return nil
}

func (s *MemoryStore) SlotCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	if row, ok := s.slots[userID]; ok {
		for _, id := range row {
			if id != "" {
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) OccupySlot(_ context.Context, userID, lobbyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupyLocked(userID, lobbyID), nil
}

func (s *MemoryStore) ReleaseSlot(_ context.Context, userID, lobbyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(userID, lobbyID), nil
}

func (s *MemoryStore) ListSlots(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	if row, ok := s.slots[userID]; ok {
		for _, id := range row {
			if id != "" {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) occupyLocked(userID, lobbyID string) bool {
	row, ok := s.slots[userID]
	if !ok {
		row = &[MaxSlots]string{}
		s.slots[userID] = row
	}
	for i := range row {
		if row[i] == "" {
			row[i] = lobbyID
			return true
		}
	}
	return false
}

func (s *MemoryStore) releaseLocked(userID, lobbyID string) bool {
	row, ok := s.slots[userID]
	if !ok {
		return false
	}
	for i := range row {
		if row[i] == lobbyID {
			row[i] = ""
			return true
		}
	}
	return false
}
