package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/domainguessr-backend/internal/config"
	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
	"github.com/DoyleJ11/domainguessr-backend/internal/httpapi"
	"github.com/DoyleJ11/domainguessr-backend/internal/hub"
	"github.com/DoyleJ11/domainguessr-backend/internal/leaderboard"
	"github.com/DoyleJ11/domainguessr-backend/internal/obslog"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := obslog.Init(cfg.Log, os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := obslog.L()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server_exit", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ServerConfig, log *zap.Logger) (err error) {
	g, ctx := errgroup.WithContext(ctx)

	lobbies, closeLobbies, err := openLobbies(ctx, g, cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeLobbies()) }()

	scores, closeScores, err := openScores(cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeScores()) }()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Lobbies:          lobbies,
			Scores:           scores,
			LeaderboardLimit: cfg.LeaderboardLimit,
			Log:              log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting_down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openLobbies(ctx context.Context, g *errgroup.Group, cfg *config.ServerConfig, log *zap.Logger) (directory.Store, func() error, error) {
	if cfg.RedisURL != "" {
		rdb, err := directory.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("lobby_store", zap.String("kind", "redis"), zap.Duration("ttl", cfg.LobbyTTL))
		return directory.NewRedisStore(rdb, cfg.LobbyTTL), rdb.Close, nil
	}

	h := hub.NewHub(ctx, cfg.LobbyTTL)
	g.Go(func() error {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				h.Sweep()
			}
		}
	})
	log.Info("lobby_store", zap.String("kind", "memory"), zap.Duration("ttl", cfg.LobbyTTL))
	return h, func() error { return nil }, nil
}

func openScores(cfg *config.ServerConfig, log *zap.Logger) (leaderboard.Store, func() error, error) {
	if cfg.DatabaseURL != "" {
		s, err := leaderboard.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("score_store", zap.String("kind", "postgres"))
		return s, s.Close, nil
	}
	log.Info("score_store", zap.String("kind", "memory"))
	return leaderboard.NewMemoryStore(), func() error { return nil }, nil
}
