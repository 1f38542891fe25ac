// catalitium-jobs — job search backend.
//
// Serves the HTML search page and the JSON API, ingests listings from
// Adzuna on a schedule, and records anonymized usage analytics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Catalitium/catalitiumJobs/internal/analytics"
	"github.com/Catalitium/catalitiumJobs/internal/config"
	"github.com/Catalitium/catalitiumJobs/internal/ingest"
	"github.com/Catalitium/catalitiumJobs/internal/ratelimit"
	"github.com/Catalitium/catalitiumJobs/internal/store"
	"github.com/Catalitium/catalitiumJobs/internal/web"
	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Store ────────────────────────────────────────────────────────────────
	var st store.Store
	if cfg.UsePostgres() {
		st, err = store.NewPostgres(ctx, cfg.DatabaseURL, cfg.DenylistLinks)
	} else {
		st, err = store.NewSQLite(ctx, cfg.SQLitePath, cfg.DenylistLinks)
	}
	if err != nil {
		log.Fatal("store init", "error", err)
	}
	defer st.Close()
	log.Info("store ready", "backend", backendName(cfg))

	// ── Redis (optional) ─────────────────────────────────────────────────────
	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if cfg.RedisURL != "" {
		rdb, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis init", "error", err)
		}
		defer rdb.Close()
		counter = ratelimit.NewRedisCounter(rdb)
		log.Info("redis connected")
	} else if cfg.Env == "production" {
		log.Warn("rate limit counters are in-memory and per-replica; set REDIS_URL for shared limits")
	}

	// ── Ingest ───────────────────────────────────────────────────────────────
	if cfg.IngestEnabled() {
		fetcher := ingest.NewAdzunaFetcher(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry, log)
		worker := ingest.NewWorker(st, fetcher, ingest.WorkerConfig{
			Titles:    cfg.IngestTitles,
			Locations: cfg.IngestLocations,
			RedFlags:  cfg.IngestRedFlags,
			Denylist:  cfg.DenylistLinks,
		}, log)
		scheduler := ingest.NewScheduler(worker, cfg.IngestIntervalHours, log)
		if err := scheduler.Start(ctx); err != nil {
			log.Fatal("ingest scheduler", "error", err)
		}
		defer scheduler.Stop()
	} else {
		log.Info("ingest disabled: no Adzuna credentials")
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	rec := analytics.NewRecorder(st, cfg.AnalyticsSalt, log)
	limiter := ratelimit.New(counter, log)
	handler, err := web.NewHandler(st, rec, limiter, cfg, log)
	if err != nil {
		log.Fatal("handler init", "error", err)
	}
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server", "error", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("stopped")
}

func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func backendName(cfg *config.Config) string {
	if cfg.UsePostgres() {
		return "postgres"
	}
	return "sqlite"
}
