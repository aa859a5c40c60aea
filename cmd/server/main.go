package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Walkie/internal/adapters/http"
	"github.com/dkeye/Walkie/internal/adapters/rtc"
	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/app/orch"
	"github.com/dkeye/Walkie/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// A local .env is optional; WALKIE_* variables from it override the yaml.
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	} else {
		zerolog.SetGlobalLevel(lvl)
	}

	channels, err := app.NewChannelRegistry(cfg.Channels)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid channel catalog")
	}
	policy, err := app.PolicyByName(cfg.BackpressurePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backpressure policy")
	}
	ice, err := rtc.BuildICEConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ice servers")
	}

	o := orch.New(channels, app.NewDispatcher(policy, app.NewMetrics()))

	r := router.SetupRouter(ctx, cfg, o, ice)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Int("channels", len(cfg.Channels)).Msg("Walkie server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
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
