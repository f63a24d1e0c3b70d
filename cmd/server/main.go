// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/emre-k/studyhall/internal/auth"
	"github.com/emre-k/studyhall/internal/cache"
	"github.com/emre-k/studyhall/internal/database"
	"github.com/emre-k/studyhall/internal/handlers"
	"github.com/emre-k/studyhall/internal/middleware"
	"github.com/emre-k/studyhall/internal/store"
	"github.com/emre-k/studyhall/internal/study"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	// postgres when configured, in-memory otherwise (dev mode)
	var st store.Store
	if os.Getenv("PG_HOST") != "" {
		db, err := database.Connect(ctx)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate schema: %v", err)
		}
		st = db
	} else {
		logger.Warn("PG_HOST not set, running with the in-memory store")
		st = store.NewMemoryStore()
	}

	var boards *cache.Leaderboard
	if os.Getenv("REDIS_ADDR") != "" {
		var err error
		boards, err = cache.Connect(ctx)
		if err != nil {
			logger.WithField("error", err).Warn("redis unavailable, leaderboard cache disabled")
			boards = nil
		}
	}

	svc := study.NewService(st, boards, logger)
	api := handlers.NewAPIServer(svc, logger)

	mux := http.NewServeMux()

	logged := middleware.LogMiddleware(logger)

	mux.Handle("/auth/token", logged(http.HandlerFunc(api.TokenHandler)))

	mux.Handle("/lobby/create", logged(http.HandlerFunc(api.CreateLobbyHandler)))
	mux.Handle("/lobby/join", logged(http.HandlerFunc(api.JoinLobbyHandler)))
	mux.Handle("/lobby/leave", logged(http.HandlerFunc(api.LeaveLobbyHandler)))
	mux.Handle("/lobby/delete", logged(http.HandlerFunc(api.DeleteLobbyHandler)))
	mux.Handle("/lobby/leaderboard", logged(http.HandlerFunc(api.LeaderboardHandler)))
	mux.Handle("/me/lobbies", logged(http.HandlerFunc(api.MyLobbiesHandler)))

	mux.Handle("/session/start", logged(http.HandlerFunc(api.StartSessionHandler)))
	mux.Handle("/session/stop", logged(http.HandlerFunc(api.StopSessionHandler)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
