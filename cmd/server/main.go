package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/orbitcam/internal/artifact"
	"github.com/inamate/orbitcam/internal/auth"
	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/config"
	"github.com/inamate/orbitcam/internal/control"
	"github.com/inamate/orbitcam/internal/export"
	mw "github.com/inamate/orbitcam/internal/middleware"
	"github.com/inamate/orbitcam/internal/render"
	"github.com/inamate/orbitcam/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	snapshots, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	artifacts, err := artifact.NewStore(cfg.ArtifactDir)
	if err != nil {
		return err
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.AuthDisabled)
	authHandler := auth.NewHandler(authService)

	builder := render.NewBuilder(cfg.SceneSeed)
	captureOpts := capture.Options{Context: ctx, FFmpegPath: cfg.FfmpegPath}

	exportHandler := export.NewHandler(export.NewService(builder, captureOpts), artifacts)
	snapshotHandler := store.NewHandler(snapshots)

	hub := control.NewHub(control.SessionConfig{
		Builder:         builder,
		Capturers:       capture.Factory(captureOpts),
		PreviewInterval: cfg.PreviewInterval(),
		PreviewWidth:    cfg.PreviewWidth,
		PreviewHeight:   cfg.PreviewHeight,
		Artifacts:       artifacts,
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/auth/session", authHandler.CreateSession).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Export and downloads are public, like the playground
	r.HandleFunc("/export", exportHandler.Export).Methods("POST", "OPTIONS")
	r.PathPrefix("/artifacts/").Handler(artifacts.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.Middleware)
	snapshotHandler.Routes(api)
	api.HandleFunc("/artifacts/{artifactId}", artifacts.DeleteHandler(func(r *http.Request) string {
		return mux.Vars(r)["artifactId"]
	})).Methods("DELETE")

	r.HandleFunc("/ws/session/{sessionId}", hub.ServeWS(authService, cfg.OriginHosts()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // exports stream after rendering
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "addr", addr, "auth", !cfg.AuthDisabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, snapshots are kept in memory")
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pg, nil
}
