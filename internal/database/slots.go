// internal/database/slots.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// SlotCount returns how many of the user's 10 slots are occupied.
func (s *Store) SlotCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_slots WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// OccupySlot assigns the lobby to the user's first free slot. Returns false
// with no mutation when all slots are taken. Not idempotent: the caller must
// check membership first.
func (s *Store) OccupySlot(ctx context.Context, userID, lobbyID string) (bool, error) {
	var occupied bool
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
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
		occupied = ct.RowsAffected() > 0
		return nil
	})
	return occupied, err
}

// ReleaseSlot clears the earliest slot holding lobbyID; false if none does.
func (s *Store) ReleaseSlot(ctx context.Context, userID, lobbyID string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `
		DELETE FROM user_slots
		 WHERE user_id = $1
		   AND slot = (SELECT slot FROM user_slots
		                WHERE user_id = $1 AND lobby_id = $2
		                ORDER BY slot LIMIT 1)`,
		userID, lobbyID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// ListSlots returns the occupied lobby ids in slot order.
func (s *Store) ListSlots(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lobby_id FROM user_slots WHERE user_id = $1 ORDER BY slot`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
