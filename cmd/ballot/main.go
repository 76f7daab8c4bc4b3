package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/naoTimesdev/naoTimes-sub002/internal/config"
	"github.com/naoTimesdev/naoTimes-sub002/internal/discord"
	"github.com/naoTimesdev/naoTimes-sub002/internal/engine"
	"github.com/naoTimesdev/naoTimes-sub002/internal/logging"
	"github.com/naoTimesdev/naoTimes-sub002/internal/metrics"
	"github.com/naoTimesdev/naoTimes-sub002/internal/redis"
	"github.com/naoTimesdev/naoTimes-sub002/internal/server"
)

func setupConfig() *config.Config {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config) *redis.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// A store that is unreachable at startup is the one fatal error class:
	// without it we cannot recover in-flight polls.
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	return redis.NewStore(client)
}

func setupMetrics() (*prometheus.Registry, *metrics.EngineMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, metrics.NewEngineMetrics(reg)
}

func main() {
	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	store := setupStore(cfg)
	promRegistry, engineMetrics := setupMetrics()

	gateway, err := discord.NewGateway(cfg.DiscordToken)
	if err != nil {
		logging.WithError(err).Error("Failed to create discord gateway")
		os.Exit(1)
	}

	watcher := engine.NewWatcher(engine.Config{
		Store:           store,
		Sink:            discord.NewSink(gateway),
		Guilds:          discord.NewGuild(gateway),
		Clock:           clockwork.NewRealClock(),
		Metrics:         engineMetrics,
		Render:          discord.RenderPoll,
		TickInterval:    cfg.TickInterval,
		RefreshInterval: cfg.RefreshInterval,
	})

	recoverCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	loaded, err := watcher.Recover(recoverCtx)
	cancel()
	if err != nil {
		logging.WithError(err).Error("Failed to recover persisted polls")
		os.Exit(1)
	}
	slog.Info("Recovered persisted polls", "count", loaded)

	watcher.Start()
	gateway.BindReactions(watcher)

	if err := gateway.Open(); err != nil {
		logging.WithError(err).Error("Failed to connect to discord")
		os.Exit(1)
	}

	srv := server.New(watcher, promRegistry)
	go func() {
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server error", "error", err)
		}
	}()

	slog.Info("ballot is running", "env", cfg.AppEnv, "port", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutdown signal received, cleaning up...")

	if err := gateway.Close(); err != nil {
		slog.Warn("Failed to close discord session", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	watcher.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Ops server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
