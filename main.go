// main.go
//
// Entry point for the chess server.
// Responsibilities:
//   - Loading .env and configuration, configuring zerolog.
//   - Selecting the game registry (memory or redis) and the optional archive.
//   - Serving HTTP until SIGINT/SIGTERM, then shutting down gracefully.
//   - -mint-admin-token: print a signed admin token and exit.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/chess-server/internal/archive"
	"github.com/robalobadob/chess-server/internal/config"
	"github.com/robalobadob/chess-server/internal/httpserver"
	"github.com/robalobadob/chess-server/internal/store"
)

func main() {
	mint := flag.Bool("mint-admin-token", false, "print a signed admin token and exit")
	mintTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a minted admin token")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	if *mint {
		tok, exp, err := httpserver.SignAdminToken(cfg.AdminSecret, *mintTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("mint admin token")
		}
		fmt.Println(tok)
		log.Info().Time("expires", exp).Msg("admin token minted")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func run(ctx context.Context, cfg config.Config) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var arc *archive.Archive
	if cfg.ArchiveDSN != "" {
		if arc, err = archive.Open(cfg.ArchiveDSN); err != nil {
			return err
		}
		defer arc.Close()
		log.Info().Str("dsn", cfg.ArchiveDSN).Msg("move archive enabled")
	}

	srv := httpserver.New(st, arc, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		AdminSecret:    cfg.AdminSecret,
		RequestTimeout: cfg.RequestTimeout,
		Version:        cfg.AppVersion,
	})
	if cfg.AdminSecret == "" {
		log.Warn().Msg("ADMIN_SECRET not set; admin routes are open")
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Str("version", cfg.AppVersion).Msg("starting chess server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

// openStore builds the configured registry and its cleanup.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rs, err := store.NewRedisStore(ctx, cfg.RedisURL, cfg.GameTTL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}
