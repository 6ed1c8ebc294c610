package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
	"github.com/DoyleJ11/domainguessr-backend/internal/leaderboard"
)

type Deps struct {
	Lobbies          directory.Store
	Scores           leaderboard.Store
	LeaderboardLimit int
	Log              *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Post("/create-lobby", CreateLobby(d.Lobbies, log))
	r.Get("/join-lobby/{code}", JoinLobby(d.Lobbies, log))
	r.Post("/leaderboard", SubmitScore(d.Scores, log))
	r.Get("/leaderboard", Leaderboard(d.Scores, d.LeaderboardLimit, log))
	r.Get("/healthz", Healthz)
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
