package models

import "time"

// Lobby represents a row in the lobbies catalog. The ID is derived
// deterministically from the name, so names are globally unique.
type Lobby struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	IsPublic         bool   `json:"is_public"`
	CredentialDigest string `json:"-"` // empty iff IsPublic
}

// Membership is one user's participation record in one lobby.
// SessionStartedAt is set iff IsRunning; AccumulatedSeconds is a frozen
// snapshot while a session runs and only moves on stop.
type Membership struct {
	LobbyID            string     `json:"lobby_id"`
	UserID             string     `json:"user_id"`
	AccumulatedSeconds int64      `json:"accumulated_seconds"`
	IsAdmin            bool       `json:"is_admin"`
	IsRunning          bool       `json:"is_running"`
	SessionStartedAt   *time.Time `json:"session_started_at,omitempty"`
}

// Standing is one leaderboard entry.
type Standing struct {
	UserID             string `json:"user_id"`
	AccumulatedSeconds int64  `json:"accumulated_seconds"`
}
