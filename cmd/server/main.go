package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	documentHandler "deskvault/internal/document/handler"
	documentService "deskvault/internal/document/service"
	documentStore "deskvault/internal/document/store"
	jwttoken "deskvault/internal/jwt_token"
	offlineMetrics "deskvault/internal/offline/metrics"
	"deskvault/internal/offline/queue"
	"deskvault/internal/offline/reconciler"
	"deskvault/internal/platform/config"
	"deskvault/internal/platform/httpserver"
	"deskvault/internal/platform/lock"
	"deskvault/internal/platform/logger"
	platformRedis "deskvault/internal/platform/redis"
	privacyHandler "deskvault/internal/privacy/handler"
	privacyMetrics "deskvault/internal/privacy/metrics"
	privacyService "deskvault/internal/privacy/service"
	privacyStore "deskvault/internal/privacy/store"
	"deskvault/internal/privacy/token"
)

const reconcileLockKey = "offline_docs:reconcile_lock"

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()

	if err := run(log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	db, err := documentStore.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	// Stores.
	docStore := documentStore.NewPostgres(db)
	credStore := privacyStore.NewPostgres(db)
	tokenStore := token.NewRedis(redisClient.Client, token.WithTTL(cfg.PrivacyTokenTTL))
	offlineQueue := queue.NewRedis(redisClient.Client)

	// Services.
	privMetrics := privacyMetrics.New()
	offMetrics := offlineMetrics.New()
	privacySvc := privacyService.New(credStore, tokenStore, privMetrics, cfg.PrivacyTokenTTL)
	documentSvc := documentService.New(docStore, offlineQueue, privacySvc, offMetrics, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "deskvault")
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)

	// HTTP surface.
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	privacyHandler.New(privacySvc, log, jwtValidator).Register(router)
	documentHandler.New(documentSvc, log, jwtValidator).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	// The lock TTL stays under the tick interval so a crashed holder cannot
	// stall peers for more than one round.
	locker := lock.NewRedisLocker(redisClient.Client, reconcileLockKey, 8*time.Second)
	rec := reconciler.New(docStore, offlineQueue, locker, offMetrics, log,
		reconciler.WithInterval(cfg.ReconcileInterval),
		reconciler.WithBatchSize(cfg.ReconcileBatchSize),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting deskvault server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := rec.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
