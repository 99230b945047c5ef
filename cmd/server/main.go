// Command server runs the federated moderation registry.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fedreg/internal/authgate"
	communityhandler "fedreg/internal/community/handler"
	communityservice "fedreg/internal/community/service"
	"fedreg/internal/discord"
	"fedreg/internal/models"
	"fedreg/internal/notify"
	notifykafka "fedreg/internal/notify/kafka"
	"fedreg/internal/platform/config"
	"fedreg/internal/platform/httpserver"
	"fedreg/internal/platform/logger"
	"fedreg/internal/platform/metrics"
	"fedreg/internal/platform/middleware"
	platformredis "fedreg/internal/platform/redis"
	"fedreg/internal/rules"
	"fedreg/internal/store"
	"fedreg/internal/store/memory"
	"fedreg/internal/store/postgres"
	"fedreg/pkg/platform/sentinel"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()

	sink, closeSink, err := buildSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	notifier := notify.New(sink, log,
		notify.WithInterval(cfg.BroadcastInterval),
		notify.WithMetrics(m),
	)

	var verifier discord.Verifier
	if cfg.DiscordToken != "" {
		verifier = discord.NewRESTVerifier(cfg.DiscordToken)
	} else {
		log.Warn("no discord token configured, identity verification disabled")
		verifier = discord.AllowAllVerifier{}
	}

	if cfg.MasterAPIKey != "" {
		if err := seedMasterToken(ctx, stores.Auth, cfg.MasterAPIKey); err != nil {
			return err
		}
		log.Info("master api key seeded")
	}

	gateOpts := []authgate.Option{}
	serviceOpts := []communityservice.Option{communityservice.WithMetrics(m)}
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache := authgate.NewTokenCache(redisClient, 5*time.Minute, log)
		gateOpts = append(gateOpts, authgate.WithCache(cache))
		serviceOpts = append(serviceOpts, communityservice.WithCredentialInvalidator(cache))
		log.Info("token cache enabled")
	}
	gate := authgate.New(stores.Auth, stores.Communities, log, gateOpts...)

	communities := communityservice.New(stores, verifier, notifier, log, serviceOpts...)
	ruleCatalog := rules.NewService(stores.Rules, stores.GuildConfigs, notifier, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	communityhandler.New(communities, gate, log).Register(router)
	rules.NewHandler(ruleCatalog, gate, log).Register(router)

	server := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Broadcasts launched by in-flight requests finish before the sink closes.
	notifier.Wait()
	return nil
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Stores, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no postgres DSN configured, using in-memory store")
		return memory.NewStores(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return store.Stores{}, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return store.Stores{}, nil, err
	}
	log.Info("postgres store ready")
	return postgres.NewStores(db), func() { db.Close() }, nil
}

func buildSink(ctx context.Context, cfg config.Config, log *slog.Logger) (notify.Sink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("no kafka brokers configured, notifications go to the log")
		return notify.NewSlogSink(log), func() {}, nil
	}
	sink, err := notifykafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("kafka sink ready", "topic", cfg.KafkaTopic)
	return sink, sink.Close, nil
}

// seedMasterToken makes the master-gated operations reachable on a fresh
// install. Re-seeding the same key on every boot is a no-op.
func seedMasterToken(ctx context.Context, auth store.AuthStore, apiKey string) error {
	existing, err := auth.FindByAPIKey(ctx, apiKey)
	if err == nil && existing.IsMaster() {
		return nil
	}
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	return auth.Create(ctx, &models.AuthToken{
		APIKey:     apiKey,
		APIKeyType: models.APIKeyTypeMaster,
	})
}
