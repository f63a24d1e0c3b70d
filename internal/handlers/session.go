// internal/handlers/session.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// StartSessionHandler handles POST /session/start.
func (s *APIServer) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad session request payload", http.StatusBadRequest)
		return
	}

	res, err := s.Service.StartSession(r.Context(), userID, req.Name, time.Now())
	if err != nil {
		s.Log.WithField("error", err).Error("start session failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, nil)
}

// StopSessionHandler handles POST /session/stop.
func (s *APIServer) StopSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad session request payload", http.StatusBadRequest)
		return
	}

	res, elapsed, err := s.Service.StopSession(r.Context(), userID, req.Name, time.Now())
	if err != nil {
		s.Log.WithField("error", err).Error("stop session failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeResult(w, res, map[string]interface{}{"elapsed_seconds": elapsed})
}
