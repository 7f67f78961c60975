package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oh2fk/pskprop/internal/broker"
	"github.com/oh2fk/pskprop/internal/cache"
	"github.com/oh2fk/pskprop/internal/config"
	"github.com/oh2fk/pskprop/internal/db"
	"github.com/oh2fk/pskprop/internal/hub"
	"github.com/oh2fk/pskprop/internal/ingest"
	"github.com/oh2fk/pskprop/internal/metrics"
	"github.com/oh2fk/pskprop/internal/session"
	"github.com/oh2fk/pskprop/internal/stats"
	"github.com/oh2fk/pskprop/internal/store"
	"github.com/oh2fk/pskprop/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	m := metrics.New(nil)
	ingestStats := stats.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	spots := store.New(clock)

	events := hub.New(200 * time.Millisecond)
	spots.SetOnChange(events.NotifySpots)
	spots.SetOnPrune(func(removed int) {
		m.SpotsPruned.Add(float64(removed))
		m.StoreSize.Set(float64(spots.Len()))
	})
	go events.Run(ctx, 250*time.Millisecond)

	brokerClient, err := broker.New(cfg.NATSURL, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer brokerClient.Close()

	manager := ingest.New(brokerClient, spots, ingestStats, m, clock, logger)
	defer manager.Close()

	sess, err := session.New(spots, manager, events, clock, logger, session.Config{
		Home: types.HomeStation{Locator: cfg.HomeLocator},
		Criteria: types.FilterCriteria{
			RadiusKm: cfg.RadiusKm,
			MaxAge:   cfg.MaxAge,
			Bands:    cfg.Bands,
		},
		Projection: cfg.Projection,
	})
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	// Optional warm-start mirror: reload the spots that would still be
	// inside the window after a restart.
	if cfg.RedisAddr != "" {
		spotCache, err := cache.New(cfg.RedisAddr, sess.MaxAge)
		if err != nil {
			logger.Warn("redis unavailable, running without warm-start cache", "error", err)
		} else {
			defer spotCache.Close()
			cached, err := spotCache.LoadSpots(ctx)
			if err != nil {
				logger.Warn("failed to load cached spots", "error", err)
			} else {
				for _, spot := range cached {
					spots.Upsert(spot)
				}
				logger.Info("warm-started spot store", "spots", len(cached))
			}
			manager.SetMirror(spotCache)
		}
	}

	// Optional stats persistence.
	if cfg.DatabaseURL != "" {
		dbClient, err := db.New(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database unavailable, running without stats persistence", "error", err)
		} else {
			defer dbClient.Close()
			if err := dbClient.Migrate(); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
			ingestStats.SetPersister(dbClient)
			go ingestStats.StartPersistence(ctx, cfg.StatsInterval, func(err error) {
				logger.Warn("failed to persist stats", "error", err)
			})
		}
	}

	if err := manager.SetBands(cfg.Bands); err != nil {
		logger.Error("failed to subscribe to bands", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion started",
		"nats_url", cfg.NATSURL,
		"home", cfg.HomeLocator,
		"bands", cfg.Bands,
		"radius_km", cfg.RadiusKm,
		"max_age", cfg.MaxAge,
	)

	go spots.Run(ctx, cfg.PruneInterval, sess.MaxAge)
	go watchBroker(ctx, brokerClient, m)
	go logStats(ctx, logger, ingestStats, spots)

	srv := newOpsServer(cfg.HTTPAddr, brokerClient, sess, ingestStats)
	go func() {
		logger.Info("ops server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// newOpsServer serves metrics, health and the ingest debug counters. The
// spot delivery surface itself lives in a separate service that consumes
// the session API.
func newOpsServer(addr string, b *broker.Client, sess *session.Session, ingestStats *stats.Stats) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := map[string]any{"degraded": b.Degraded()}
		w.Header().Set("Content-Type", "application/json")
		if b.Degraded() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ingestStats.GetStats())
	})
	mux.HandleFunc("GET /recent", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"recent": ingestStats.Recent()})
	})
	mux.HandleFunc("GET /config", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sess.Current())
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func watchBroker(ctx context.Context, b *broker.Client, m *metrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.Degraded() {
				m.BrokerUp.Set(0)
			} else {
				m.BrokerUp.Set(1)
			}
		}
	}
}

func logStats(ctx context.Context, logger *slog.Logger, ingestStats *stats.Stats, spots *store.SpotStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("ingest stats", "counters", ingestStats.String(), "stored_spots", spots.Len())
		}
	}
}
