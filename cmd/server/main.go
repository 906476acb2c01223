package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/VasudevPatil18/full-stack-interview-platform/internal/config"
	"github.com/VasudevPatil18/full-stack-interview-platform/internal/logging"
	"github.com/VasudevPatil18/full-stack-interview-platform/internal/server"
	"github.com/VasudevPatil18/full-stack-interview-platform/internal/signaling"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.LogLevel)

	hub := signaling.NewHub()
	hub.OnMembershipChange = func(roomID string, memberCount int) {
		// The session CRUD layer subscribes here once it runs in
		// process; until then the count is only logged.
		log.Debug().Str("room", roomID).Int("members", memberCount).Msg("room membership changed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// No Read/WriteTimeout here: deadlines set by the HTTP server
	// would outlive the upgrade and kill long-lived websockets. The
	// pumps manage their own deadlines.
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.NewRouter(hub, cfg),
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("signaling server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
