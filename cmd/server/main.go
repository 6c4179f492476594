package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clip-storage/internal/clips"
	"clip-storage/internal/platform/config"
	"clip-storage/internal/platform/disk"
	"clip-storage/internal/platform/logger"
	"clip-storage/internal/platform/metrics"
	"clip-storage/internal/probe"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = config.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("error", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	startLog := logger.Component(log, "storage", "init")

	if cfg.Secret == "" {
		startLog.Warn("SECRET is not set, all requests will be accepted")
	}

	ffprobe := probe.New(cfg.FFprobePath, cfg.ProbeTimeout)
	if err := ffprobe.CheckAvailable(); err != nil {
		startLog.Error("duration probe unavailable", "error", err)
		os.Exit(1)
	}

	store, err := clips.NewStore(cfg.SaveDir)
	if err != nil {
		startLog.Error("failed to initialise storage directory", "error", err)
		os.Exit(1)
	}
	if n, err := store.SweepStaging(); err != nil {
		startLog.Error("failed to sweep staging files", "error", err)
		os.Exit(1)
	} else if n > 0 {
		startLog.Info("removed stale staging files", "count", n)
	}

	capacity, err := clips.InitCapacity(store.Dir(), cfg.MaxSize, disk.Probe{})
	if err != nil {
		startLog.Error("could not determine storage capacity", "error", err)
		os.Exit(1)
	}
	snap := capacity.Snapshot()
	startLog.Info("capacity initialised",
		"max_usage_bytes", snap.MaxUsageBytes,
		"folder_usage_bytes", snap.FolderUsageBytes,
		"disk_free_bytes", snap.DiskFreeBytes,
		"remaining_bytes", snap.Remaining(),
	)

	gate := clips.NewDurationGate()
	if cfg.HasDurationBounds {
		if err := gate.Configure(cfg.DurationMin, cfg.DurationMax); err != nil {
			startLog.Error("invalid initial duration bounds", "min", cfg.DurationMin, "max", cfg.DurationMax, "error", err)
			os.Exit(1)
		}
	}

	svc := clips.NewService(store, capacity, gate, ffprobe, logger.Component(log, "clips", "upload"))
	met := metrics.New()
	met.RegisterCapacity(capacity.Remaining)
	h := clips.NewHandler(svc, logger.Component(log, "clips", "http"), met, cfg.Secret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", met.Handler())
	h.Register(r)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"save_dir", store.Dir(),
		"log_level", cfg.LogLevel,
		"duration_bounds_set", gate.IsConfigured(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
