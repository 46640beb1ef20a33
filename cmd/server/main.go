// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/varchess/lobby/internal/auth"
	"github.com/varchess/lobby/internal/config"
	"github.com/varchess/lobby/internal/games"
	"github.com/varchess/lobby/internal/handlers"
	"github.com/varchess/lobby/internal/lobby"
	"github.com/varchess/lobby/internal/metrics"
	"github.com/varchess/lobby/internal/middleware"
	"github.com/varchess/lobby/internal/rating"
	"github.com/varchess/lobby/internal/restart"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if cfg.JWTPrivateKeyPath != "" && cfg.JWTPublicKeyPath != "" {
		if err := auth.InitFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath); err != nil {
			log.Fatalf("auth keys: %v", err)
		}
	} else {
		auth.Init()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	var ratings rating.Provider = rating.Static{}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		ratings = rating.NewPostgresProvider(pool)
		logger.Info("rating provider: postgres")
	} else {
		logger.Warn("DATABASE_URL unset; invites will carry no ratings")
	}

	var restartCoord restart.Coordinator = restart.Static{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		restartCoord = restart.NewRedisCoordinator(rdb)
		logger.Info("restart coordinator: redis")
	} else {
		logger.Warn("REDIS_ADDR unset; restart gate disabled")
	}

	registry := games.NewRegistry(logger, m)
	mgr := lobby.NewManager(lobby.Deps{
		Games:       registry,
		Ratings:     ratings,
		Restart:     restartCoord,
		Logger:      logger,
		Metrics:     m,
		GraceWindow: cfg.GraceWindow,
	})

	mux := http.NewServeMux()
	mux.Handle("/lobby/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LobbyWSHandler(logger, mgr),
	)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server exited: %v", err)
	}
}
