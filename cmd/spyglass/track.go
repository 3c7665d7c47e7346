// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spyglass/spyglass/internal/census"
	"github.com/spyglass/spyglass/internal/config"
	"github.com/spyglass/spyglass/internal/events/postgres"
	"github.com/spyglass/spyglass/internal/logging"
	"github.com/spyglass/spyglass/internal/observability"
	"github.com/spyglass/spyglass/internal/realtime"
	"github.com/spyglass/spyglass/internal/state"
	"github.com/spyglass/spyglass/internal/store"
	"github.com/spyglass/spyglass/internal/xdg"
	"github.com/spyglass/spyglass/pkg/errutil"
)

// NewTrackCmd creates the track subcommand.
func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Start the tracker process",
		Long: `Start the tracker process which subscribes to the realtime feed,
maintains live player, zone, and NPC state, and records events in
PostgreSQL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrack(cmd.Context(), cmd)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// resolveConfigPath returns the --config flag value or the XDG default.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return xdg.ConfigFile()
}

func runTrack(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(resolveConfigPath(), cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("spyglass", version, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
	log := slog.Default()

	log.Info("starting tracker",
		"worlds", cfg.Worlds,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info("connected to database")

	players := state.NewCharacterStore()
	zones := state.NewZoneStore()
	npcs := state.NewNpcStore()

	kills := postgres.NewKillStore(pool)
	exp := postgres.NewExpStore(pool)
	sessionStore := postgres.NewSessionStore(pool)

	sessions := realtime.NewSessionTracker(players, sessionStore, log)

	characterQueue := realtime.NewQueue[string]()
	sessionQueue := realtime.NewQueue[state.TrackedPlayer]()

	handler := realtime.NewEventHandler(realtime.HandlerDeps{
		Players:        players,
		Zones:          zones,
		Npcs:           npcs,
		Kills:          kills,
		Exp:            exp,
		Sessions:       sessions,
		CharacterQueue: characterQueue,
		SessionQueue:   sessionQueue,
	}, log)

	stream := census.NewStream(cfg.FeedURL, cfg.ServiceID, cfg.Worlds, handler, log)

	obsServer := observability.NewServer(cfg.MetricsAddr, stream.Connected, func() any {
		return map[string]any{
			"players_online": players.OnlineCount(),
			"zones":          zones.Snapshot(),
			"npcs":           npcs.Snapshot(),
		}
	})
	realtime.RegisterMetrics(obsServer.Registry())

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

	characterWorker := realtime.NewCharacterCacheWorker(
		characterQueue, census.NewRESTCharacterSource(cfg.ServiceID), players, log)
	sessionWorker := realtime.NewSessionStarterWorker(sessionQueue, sessions, log)

	go func() {
		if err := characterWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errutil.LogError(log, "character cache worker stopped", err)
		}
	}()
	go func() {
		if err := sessionWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errutil.LogError(log, "session starter worker stopped", err)
		}
	}()

	streamErrCh := make(chan error, 1)
	go func() {
		streamErrCh <- stream.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Tracker started")
	log.Info("tracker ready")

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-streamErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := obsServer.Stop(shutdownCtx); err != nil {
		log.Warn("error stopping observability server", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a server reports an
// error, so a failed server triggers full process shutdown. It exits
// when an error arrives, the channel closes, or the context ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
