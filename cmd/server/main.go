package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpadapter "github.com/shlomilevushh/mini-discord/internal/adapters/http"
	"github.com/shlomilevushh/mini-discord/internal/auth"
	"github.com/shlomilevushh/mini-discord/internal/config"
	"github.com/shlomilevushh/mini-discord/internal/hub"
	"github.com/shlomilevushh/mini-discord/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	tokens := auth.NewTokens(cfg.Secret, cfg.SessionTTL)
	metrics := hub.NewMetrics(prometheus.DefaultRegisterer)
	h := hub.New(st, metrics, hub.Options{
		SendTimeout: cfg.SendTimeout,
		PingPeriod:  cfg.PingPeriod,
		ReadLimit:   cfg.ReadLimit,
	})

	api := httpadapter.NewAPI(cfg, st, h, tokens)
	r := httpadapter.SetupRouter(cfg, api)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("mini-discord server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
