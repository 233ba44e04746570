// Package main is the entry point for the Songdle game server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/analytics"
	"github.com/edumarques81/songdle/internal/app"
	"github.com/edumarques81/songdle/internal/audio"
	"github.com/edumarques81/songdle/internal/config"
	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/domain/daily"
	"github.com/edumarques81/songdle/internal/domain/game"
	"github.com/edumarques81/songdle/internal/infra/mpd"
	"github.com/edumarques81/songdle/internal/infra/store"
	"github.com/edumarques81/songdle/internal/transport/socketio"
	"github.com/edumarques81/songdle/internal/version"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	loc, _ := cfg.Location()

	// Print startup banner
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", version.GetInfo().String())
	log.Info().Msg("  Daily Song Guessing Game")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", cfg.Port).
		Str("db", cfg.DatabasePath()).
		Str("catalog", cfg.CatalogPath).
		Str("tz", loc.String()).
		Str("playback", cfg.Playback).
		Int("max_attempts", cfg.MaxAttempts).
		Dur("max_listen", cfg.MaxListen).
		Bool("otel", cfg.OTel.Enabled).
		Msg("Configuration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var songs *catalog.Catalog
	if cfg.CatalogPath != "" {
		songs, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load catalog")
		}
	} else {
		log.Warn().Msg("No catalog configured, using built-in catalog")
		songs, err = catalog.Default()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load built-in catalog")
		}
	}

	selector := daily.NewSelector(songs,
		daily.WithLocation(loc),
		daily.WithFixedIndex(cfg.FixedIndex),
	)
	tiers := selector.Tiers()
	log.Info().
		Int("songs", songs.Len()).
		Int("premium", tiers.Premium).
		Int("regular", tiers.Regular).
		Int("non_working", tiers.NonWorking).
		Bool("degraded", tiers.Degraded).
		Msg("Catalog loaded")
	if tiers.Degraded {
		log.Warn().Int("index", cfg.FixedIndex).Msg("Catalog has no audio verification data, serving a fixed song")
	}

	db := store.NewSQLite(cfg.DatabasePath())
	if err := db.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	trackers := analytics.Multi{analytics.NewLogTracker(zerolog.InfoLevel)}
	if cfg.OTel.Enabled {
		ot, err := analytics.NewOTelTracker(ctx, analytics.OTelConfig{
			Endpoint: cfg.OTel.Endpoint,
			Enabled:  cfg.OTel.Enabled,
			Insecure: cfg.OTel.Insecure,
		})
		if err != nil {
			log.Warn().Err(err).Msg("OTel metrics disabled")
		} else {
			trackers = append(trackers, ot)
			log.Info().Str("endpoint", cfg.OTel.Endpoint).Msg("OTel metrics enabled")
		}
	}

	var (
		relay   *socketio.PlaybackRelay
		players app.PlayerFactory
		health  func() error
	)
	switch cfg.Playback {
	case config.PlaybackMPD:
		mpdClient := mpd.NewClient(cfg.MPD.Host, cfg.MPD.Port, cfg.MPD.Password)
		if err := mpdClient.Connect(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MPD")
		}
		defer mpdClient.Close()

		events, err := mpdClient.Watch("player")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start MPD watcher")
		}
		// One speaker: every player shares the same output.
		kiosk := mpd.NewPlayer(mpdClient, cfg.AudioBaseURL())
		go kiosk.Run(ctx, events)

		players = func(string) audio.Player { return kiosk }
		health = mpdClient.Ping
		log.Info().Str("audio_base", cfg.AudioBaseURL()).Msg("MPD playback enabled")
	default:
		relay = socketio.NewPlaybackRelay()
		players = relay.Player
	}

	gameApp := app.New(app.Options{
		Catalog:  songs,
		Selector: selector,
		Store:    db,
		Tracker:  trackers,
		Players:  players,
		Game: game.Config{
			MaxAttempts:  cfg.MaxAttempts,
			MaxListen:    cfg.MaxListen,
			TickInterval: cfg.TickInterval,
		},
	})
	go gameApp.RunDayWatcher(ctx, time.Minute)

	socketServer, err := socketio.NewServer(gameApp, relay, cfg.MaxExternalConnections)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	rt := &routes{
		app:       gameApp,
		socket:    socketServer,
		staticDir: cfg.StaticDir,
		health:    health,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rt.handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		if err := gameApp.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close game sessions")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}
	<-stopped

	log.Info().Msg("Server stopped")
}
