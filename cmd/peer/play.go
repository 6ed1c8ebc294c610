package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/domainguessr-backend/internal/catalog"
	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
	"github.com/DoyleJ11/domainguessr-backend/internal/obslog"
	"github.com/DoyleJ11/domainguessr-backend/internal/session"
	"github.com/DoyleJ11/domainguessr-backend/internal/transport"
	"github.com/DoyleJ11/domainguessr-backend/internal/ws"
)

func setup(cfg *Config) (*zap.Logger, error) {
	if err := obslog.Init(obslog.Options{Level: cfg.logLevel, Format: cfg.logFormat}, os.Stderr); err != nil {
		return nil, err
	}
	return obslog.L().With(zap.String("player", cfg.name)), nil
}

func loadCatalog(cfg *Config) (*catalog.Catalog, error) {
	if cfg.catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.catalog)
}

func runHost(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	log, err := setup(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := directory.NewClient(cfg.directory)
	entry := directory.Entry{PeerID: uuid.NewString(), Address: cfg.advertiseURL()}
	code, err := client.CreateLobby(ctx, "", entry)
	if err != nil {
		return fmt.Errorf("create lobby: %w", err)
	}

	gate := ws.NewPeerGate(code, log)
	r := chi.NewRouter()
	r.Get("/peer", gate.Handler())
	srv := &http.Server{Addr: cfg.listen, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	fmt.Fprintf(out, "Lobby code: %s\nWaiting for an opponent...\n", code)

	var link transport.Channel
	select {
	case link = <-gate.Links():
	case <-gctx.Done():
		cancel()
		return g.Wait()
	}

	ctl := session.NewController(ctx, session.RoleInitiator, link, session.WithLogger(log))
	defer func() { _ = ctl.Close() }()

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	start := func() error {
		puzzles, err := cat.Round(cfg.level, cfg.rounds, rng)
		if err != nil {
			return err
		}
		return ctl.InitializeAsInitiator(puzzles, len(puzzles))
	}

	fmt.Fprintln(out, "Opponent joined. Type /start to begin, /kick to send them away.")
	con := &console{ctl: ctl, role: session.RoleInitiator, out: out, start: start}
	runErr := con.run(ctx, in)

	cancel()
	return multierr.Append(runErr, g.Wait())
}

func runJoin(ctx context.Context, cfg *Config, code string, in io.Reader, out io.Writer) error {
	log, err := setup(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	code = directory.NormalizeCode(code)
	entry, err := directory.NewClient(cfg.directory).JoinLobby(ctx, code)
	if errors.Is(err, directory.ErrNotFound) {
		return fmt.Errorf("no lobby with code %s", code)
	}
	if err != nil {
		return fmt.Errorf("join lobby: %w", err)
	}
	if entry.Address == "" {
		return fmt.Errorf("lobby %s has no peer address", code)
	}

	u, err := url.Parse(entry.Address)
	if err != nil {
		return fmt.Errorf("bad peer address %q: %w", entry.Address, err)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()

	link, err := transport.Dial(ctx, u.String(), log)
	if err != nil {
		return fmt.Errorf("connect to host: %w", err)
	}

	ctl := session.NewController(ctx, session.RoleResponder, link, session.WithLogger(log))
	defer func() { _ = ctl.Close() }()

	fmt.Fprintln(out, "Connected. Waiting for the host to start...")
	con := &console{ctl: ctl, role: session.RoleResponder, out: out}
	return con.run(ctx, in)
}
