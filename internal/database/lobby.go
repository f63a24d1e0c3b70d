// internal/database/lobby.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/emre-k/studyhall/internal/models"
	"github.com/emre-k/studyhall/internal/store"
)

// CreateLobby inserts the catalog row and the creator's admin membership in
// one transaction. A catalog row with no member rows is a leftover from a
// partial creation and gets overwritten so the caller can retry.
func (s *Store) CreateLobby(ctx context.Context, lobby *models.Lobby, creatorID string) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var memberCount int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM lobbies l
			   JOIN lobby_members m ON m.lobby_id = l.id
			  WHERE l.id = $1`, lobby.ID).Scan(&memberCount)
		if err != nil {
			return err
		}
		if memberCount > 0 {
			return store.ErrDuplicate
		}

		var digest *string
		if lobby.CredentialDigest != "" {
			digest = &lobby.CredentialDigest
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO lobbies (id, name, is_public, credential_digest)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    is_public = EXCLUDED.is_public,
			    credential_digest = EXCLUDED.credential_digest`,
			lobby.ID, lobby.Name, lobby.IsPublic, digest)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO lobby_members (lobby_id, user_id, is_admin)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (lobby_id, user_id) DO UPDATE SET is_admin = TRUE`,
			lobby.ID, creatorID)
		return err
	})
}

// GetLobby fetches a catalog row by id.
func (s *Store) GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	var l models.Lobby
	var digest *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, is_public, credential_digest FROM lobbies WHERE id = $1`,
		lobbyID).Scan(&l.ID, &l.Name, &l.IsPublic, &digest)
	if err != nil {
		return nil, mapErr(err)
	}
	if digest != nil {
		l.CredentialDigest = *digest
	}
	return &l, nil
}

// DeleteLobby removes the catalog row, all memberships, and every slot
// referencing the lobby.
func (s *Store) DeleteLobby(ctx context.Context, lobbyID string) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_slots WHERE lobby_id = $1`, lobbyID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM lobby_members WHERE lobby_id = $1`, lobbyID); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM lobbies WHERE id = $1`, lobbyID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// GetMembership fetches one (lobby, user) row.
func (s *Store) GetMembership(ctx context.Context, lobbyID, userID string) (*models.Membership, error) {
	var m models.Membership
	var startedAt *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT lobby_id, user_id, accumulated_seconds, is_admin, is_running, session_started_at
		  FROM lobby_members
		 WHERE lobby_id = $1 AND user_id = $2`,
		lobbyID, userID).Scan(
		&m.LobbyID, &m.UserID, &m.AccumulatedSeconds, &m.IsAdmin, &m.IsRunning, &startedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	m.SessionStartedAt = startedAt
	return &m, nil
}

// ListMembers returns every membership of the lobby. Order is not
// semantically significant; the service sorts for leaderboard display.
func (s *Store) ListMembers(ctx context.Context, lobbyID string) ([]models.Membership, error) {
	var exists int
	if err := s.pool.QueryRow(ctx, `SELECT 1 FROM lobbies WHERE id = $1`, lobbyID).Scan(&exists); err != nil {
		return nil, mapErr(err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT lobby_id, user_id, accumulated_seconds, is_admin, is_running, session_started_at
		  FROM lobby_members
		 WHERE lobby_id = $1`, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		var startedAt *time.Time
		if err := rows.Scan(&m.LobbyID, &m.UserID, &m.AccumulatedSeconds, &m.IsAdmin, &m.IsRunning, &startedAt); err != nil {
			return nil, err
		}
		m.SessionStartedAt = startedAt
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember occupies the user's first free slot and inserts the membership
// row inside one transaction, so a duplicate membership never leaks a slot.
func (s *Store) AddMember(ctx context.Context, lobbyID, userID string) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			INSERT INTO user_slots (user_id, slot, lobby_id)
			SELECT $1, s, $2
			  FROM generate_series(1, 10) AS s
			 WHERE s NOT IN (SELECT slot FROM user_slots WHERE user_id = $1)
			 ORDER BY s
			 LIMIT 1`, userID, lobbyID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return store.ErrNoFreeSlot
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO lobby_members (lobby_id, user_id) VALUES ($1, $2)`,
			lobbyID, userID)
		return mapErr(err)
	})
}

// RemoveMember deletes the membership row and releases the matching slot
// together; missing either half reports store.ErrNotFound.
func (s *Store) RemoveMember(ctx context.Context, lobbyID, userID string) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`DELETE FROM lobby_members WHERE lobby_id = $1 AND user_id = $2`,
			lobbyID, userID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return store.ErrNotFound
		}

		ct, err = tx.Exec(ctx, `
			DELETE FROM user_slots
			 WHERE user_id = $1
			   AND slot = (SELECT slot FROM user_slots
			                WHERE user_id = $1 AND lobby_id = $2
			                ORDER BY slot LIMIT 1)`,
			userID, lobbyID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// StartSession flips the membership to running as of startedAt.
func (s *Store) StartSession(ctx context.Context, lobbyID, userID string, startedAt time.Time) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE lobby_members
		   SET is_running = TRUE, session_started_at = $3
		 WHERE lobby_id = $1 AND user_id = $2`,
		lobbyID, userID, startedAt)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SettleSession clears the running state and credits elapsed seconds. The
// delta may be negative under clock skew; it is applied as-is.
func (s *Store) SettleSession(ctx context.Context, lobbyID, userID string, elapsed int64) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE lobby_members
		   SET is_running = FALSE,
		       session_started_at = NULL,
		       accumulated_seconds = accumulated_seconds + $3
		 WHERE lobby_id = $1 AND user_id = $2`,
		lobbyID, userID, elapsed)
	if err != nil {
		return fmt.Errorf("failed to settle session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
