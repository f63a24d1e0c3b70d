// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emre-k/studyhall/internal/auth"
	"github.com/emre-k/studyhall/internal/study"
)

// APIServer groups the HTTP handlers the Discord front end calls. Every
// lobby/session endpoint authenticates via the auth_token cookie; the token
// endpoint is guarded by the shared bot key instead.
type APIServer struct {
	Service *study.Service
	Log     *logrus.Logger
}

func NewAPIServer(svc *study.Service, logger *logrus.Logger) *APIServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &APIServer{Service: svc, Log: logger}
}

// TokenHandler mints a JWT for a user id presented by the bot. The bot proves
// itself with the BOT_API_KEY shared secret; a request without a user id gets
// a fresh ephemeral identity.
func (s *APIServer) TokenHandler(w http.ResponseWriter, r *http.Request) {
	botKey := os.Getenv("BOT_API_KEY")
	if botKey == "" || r.Header.Get("X-Api-Key") != botKey {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}

	token, err := auth.CreateJWT(req.UserID)
	if err != nil {
		s.Log.WithField("error", err).Error("failed to create jwt")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"user_id": req.UserID,
		"token":   token,
	})
}

// authenticate resolves the caller's user id from the auth_token cookie, or
// writes the error response and returns false.
func (s *APIServer) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return "", false
	}
	userID, err := auth.AuthenticateJWT(extractCookieToken(cookie, "auth_token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return "", false
	}
	return userID, true
}

// extractCookieToken pulls the named value out of a raw Cookie header.
func extractCookieToken(cookie, name string) string {
	parts := strings.Split(cookie, name+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeResult reports an operation outcome plus any extra payload fields.
// Outcomes are data, not HTTP failures: the bot switches on the result code.
func writeResult(w http.ResponseWriter, res study.Result, extra map[string]interface{}) {
	body := map[string]interface{}{"result": res.String()}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, body)
}
