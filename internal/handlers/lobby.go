// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"net/http"
)

// CreateLobbyHandler handles POST /lobby/create.
func (s *APIServer) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name"`
		IsPublic bool   `json:"is_public"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}

	res, lobbyID, err := s.Service.CreateLobby(r.Context(), userID, req.Name, req.IsPublic, req.Password)
	if err != nil {
		s.Log.WithField("error", err).Error("create lobby failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, map[string]interface{}{"lobby_id": lobbyID})
}

// JoinLobbyHandler handles POST /lobby/join.
func (s *APIServer) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}

	res, err := s.Service.JoinLobby(r.Context(), userID, req.Name, req.Password)
	if err != nil {
		s.Log.WithField("error", err).Error("join lobby failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, nil)
}

// LeaveLobbyHandler handles POST /lobby/leave. The caller must be the lobby
// admin; user_id names the member to remove and defaults to the caller.
func (s *APIServer) LeaveLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name   string `json:"name"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = userID
	}

	res, err := s.Service.LeaveLobby(r.Context(), userID, req.UserID, req.Name)
	if err != nil {
		s.Log.WithField("error", err).Error("leave lobby failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, nil)
}

// DeleteLobbyHandler handles POST /lobby/delete.
func (s *APIServer) DeleteLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}

	res, err := s.Service.DeleteLobby(r.Context(), userID, req.Name)
	if err != nil {
		s.Log.WithField("error", err).Error("delete lobby failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, nil)
}

// LeaderboardHandler handles GET /lobby/leaderboard?name=...
func (s *APIServer) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing lobby name", http.StatusBadRequest)
		return
	}

	res, standings, err := s.Service.Leaderboard(r.Context(), name)
	if err != nil {
		s.Log.WithField("error", err).Error("leaderboard failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, map[string]interface{}{"standings": standings})
}

// MyLobbiesHandler handles GET /me/lobbies.
func (s *APIServer) MyLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	names, err := s.Service.MyLobbies(r.Context(), userID)
	if err != nil {
		s.Log.WithField("error", err).Error("my lobbies failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"lobbies": names})
}
