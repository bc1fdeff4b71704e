package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/auth"
	"github.com/JadeHendricks/mern-devconnector/internal/cache"
	"github.com/JadeHendricks/mern-devconnector/internal/config"
	"github.com/JadeHendricks/mern-devconnector/internal/db"
	"github.com/JadeHendricks/mern-devconnector/internal/github"
	httpx "github.com/JadeHendricks/mern-devconnector/internal/http"
	"github.com/JadeHendricks/mern-devconnector/internal/http/handlers"
	"github.com/JadeHendricks/mern-devconnector/internal/observability"
	"github.com/JadeHendricks/mern-devconnector/internal/redisclient"
	"github.com/JadeHendricks/mern-devconnector/internal/repo/memory"
	"github.com/JadeHendricks/mern-devconnector/internal/repo/postgres"
	"github.com/JadeHendricks/mern-devconnector/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

type userRepo interface {
	service.UserStore
	service.AccountDeleter
}

// stores groups the repositories picked by STORE_DRIVER.
type stores struct {
	users    userRepo
	profiles service.ProfileStore
	close    func()
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Env:         cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{}

	st, err := openStores(ctx, cfg, prom, checks, log)
	if err != nil {
		return err
	}
	defer st.close()

	reposCache, closeCache := openCache(ctx, cfg, checks, log)
	defer closeCache()

	gh := github.New(github.Config{
		BaseURL:      cfg.GitHub.BaseURL,
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		Timeout:      cfg.GitHub.Timeout,
		CacheTTL:     cfg.GitHub.CacheTTL,
	},
		github.WithCache(reposCache),
		github.WithMetrics(prom),
		github.WithLogger(log),
	)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Validate only lets this through in dev and test
		log.Warn("JWT_SECRET not set, using an insecure development secret")
		secret = "devconnector-dev-secret"
	}
	tokens := auth.NewManager(secret, cfg.Auth.TokenTTL)

	// set up routers with the log
	router := httpx.NewRouter(cfg, log, httpx.Services{
		Auth:     service.NewAuthService(st.users, tokens, cfg.Auth.BcryptCost, log),
		Profiles: service.NewProfileService(st.profiles, st.users, gh, log),
		Prom:     prom,
		Gatherer: reg,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// Graceful shutdown

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return <-errCh
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom, checks map[string]handlers.Check, log *slog.Logger) (stores, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")

		mdb := memory.NewDB()
		return stores{
			users:    memory.NewUsersRepo(mdb),
			profiles: memory.NewProfilesRepo(mdb),
			close:    func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DB.URL, cfg.DB.MaxConns)
	if err != nil {
		return stores{}, fmt.Errorf("db connect failed: %w", err)
	}

	if cfg.DB.RunMigrations {
		if err := db.Migrate(ctx, pool, "up"); err != nil {
			pool.Close()
			return stores{}, err
		}
		log.Info("migrations applied")
	}

	checks["postgres"] = pool.Ping

	return stores{
		users:    postgres.NewUsersRepo(pool, prom),
		profiles: postgres.NewProfilesRepo(pool, prom),
		close:    pool.Close,
	}, nil
}

// openCache prefers redis and falls back to a process-local cache when
// REDIS_ADDR is unset or unreachable.
func openCache(ctx context.Context, cfg config.Config, checks map[string]handlers.Check, log *slog.Logger) (cache.Store, func()) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemory(cfg.GitHub.CacheTTL), func() {}
	}

	rc, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", "addr", cfg.Redis.Addr, "err", err)
		return cache.NewMemory(cfg.GitHub.CacheTTL), func() {}
	}

	checks["redis"] = rc.Ping

	return cache.NewRedis(rc.Raw(), "devconnector:"), func() { _ = rc.Close() }
}
