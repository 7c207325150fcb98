package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/config"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/logging"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/paper"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/server"
	ws "github.com/juliaizbroke/SeniorProject1-sub000/pkg/http/ws"
)

// Application aggregates shared infrastructure (session store, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis *redis.Client
	http  *http.Server
}

// New bootstraps config, logger, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := server.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("session store unreachable at startup; sessions will be in-memory-only until it returns")
	}

	state := paper.NewRedisState(redisClient, cfg.Session.TTL, logger)
	hub := ws.NewHub(logger)

	service := paper.NewService(state, hub, paper.ServiceOptions{
		ClearLocksOnExport: cfg.Session.ClearLocksOnExport,
	}, logger)

	handlers := paper.NewHTTPHandlers(service, logger)
	wsHandler := paper.NewWSHandler(hub, server.WSUpgrader, logger)

	apiServer := server.NewHTTPServer(cfg, logger, redisClient, handlers, wsHandler)

	return &Application{
		cfg:    cfg,
		logger: logger,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
