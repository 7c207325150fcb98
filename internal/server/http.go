package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/config"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/logging"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/paper"
)

// requestLogger injects a request-scoped logger so handlers can annotate
// failures with the method and path that triggered them.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scoped := logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), scoped)))
		})
	}
}

// WSUpgrader handles WebSocket upgrades for session push channels.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the authoring frontend's origin in production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewHTTPServer wires base routes (health, metrics) plus the session API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, redisClient *redis.Client, handlers *paper.HTTPHandlers, wsHandler http.HandlerFunc) *http.Server {
	r := chi.NewRouter()

	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			logger.Error().Err(err).Msg("session store ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		handlers.Mount(r)
	})

	r.Get("/ws/sessions/{sessionID}", wsHandler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
}

// Ping verifies the session store is reachable.
func Ping(ctx context.Context, redisClient *redis.Client) error {
	return redisClient.Ping(ctx).Err()
}
