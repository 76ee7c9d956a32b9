package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal/config"
	"github.com/scythe504/quizroom-backend/internal/database"
	"github.com/scythe504/quizroom-backend/internal/game"
	"github.com/scythe504/quizroom-backend/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// a missing .env is fine; the environment and flags still apply
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, run).ExecuteContext(ctx))
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func run(ctx context.Context, cfg *config.Config) error {
	setupLogging(cfg.Verbose)
	log.Info().Str("version", config.ReleaseVersion).Msg("START: quizroom")

	opts := game.Options{
		MaxPlayers:     cfg.MaxPlayers,
		RoomTTL:        cfg.RoomTTL,
		SweepInterval:  cfg.SweepInterval,
		PingInterval:   cfg.PingInterval,
		RoundTimeLimit: cfg.RoundTimeLimit,
	}

	var db database.Service
	if cfg.DatabaseURL != "" {
		var err error
		if db, err = database.New(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		defer db.Close()
		opts.Recorder = db
	} else {
		log.Info().Msg("results archive disabled")
	}

	coordinator := game.NewCoordinator(opts)
	go coordinator.RunSweeper(ctx)

	srv := server.New(cfg.WsPath, coordinator, db).NewHTTPServer(cfg.Addr())

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("ws", cfg.WsPath).Msg("SERVE: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
