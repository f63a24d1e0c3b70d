// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/emre-k/studyhall/internal/models"
)

// MaxSlots is the number of lobby memberships a single user may hold.
const MaxSlots = 10

var (
	// ErrNotFound is returned when a lobby, membership, or slot does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a row with the same identity already exists.
	ErrDuplicate = errors.New("already exists")
	// ErrNoFreeSlot is returned when a user has all MaxSlots slots occupied.
	ErrNoFreeSlot = errors.New("no free slot")
)

// Store is the persistence surface the lobby service operates on. It covers
// the lobby catalog, the per-lobby membership relation, and the per-user slot
// table. Implementations must keep each method atomic; the service composes
// them but never spans a transaction across calls.
//
// Methods return the sentinel errors above for expected absence/presence
// conditions; anything else is an infrastructure fault.
type Store interface {
	// CreateLobby inserts the catalog row together with the creator's admin
	// membership. A catalog row that exists but has no member rows counts as
	// a partially-created lobby and is overwritten rather than rejected.
	CreateLobby(ctx context.Context, lobby *models.Lobby, creatorID string) error
	GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error)
	// DeleteLobby removes the catalog row, every membership, and every slot
	// referencing the lobby in one atomic unit.
	DeleteLobby(ctx context.Context, lobbyID string) error

	GetMembership(ctx context.Context, lobbyID, userID string) (*models.Membership, error)
	ListMembers(ctx context.Context, lobbyID string) ([]models.Membership, error)
	// AddMember occupies the user's first free slot and inserts the
	// membership row as one atomic unit, so a duplicate membership can never
	// leak an occupied slot.
	AddMember(ctx context.Context, lobbyID, userID string) error
	// RemoveMember deletes the membership row and releases the matching slot
	// together. ErrNotFound if either half is missing.
	RemoveMember(ctx context.Context, lobbyID, userID string) error

	// StartSession marks the membership running as of startedAt.
	StartSession(ctx context.Context, lobbyID, userID string, startedAt time.Time) error
	// SettleSession clears the running state and adds elapsed (which may be
	// negative under clock skew) to the accumulated total.
	SettleSession(ctx context.Context, lobbyID, userID string, elapsed int64) error

	SlotCount(ctx context.Context, userID string) (int, error)
	// OccupySlot assigns the lobby to the user's first free slot. It is not
	// idempotent: callers must check membership first.
	OccupySlot(ctx context.Context, userID, lobbyID string) (bool, error)
	ReleaseSlot(ctx context.Context, userID, lobbyID string) (bool, error)
	// ListSlots returns the occupied lobby ids in slot order.
	ListSlots(ctx context.Context, userID string) ([]string, error)
}
