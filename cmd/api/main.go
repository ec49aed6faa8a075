package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/config"
	"github.com/zudaR107/todo-app/internal/db"
	httpx "github.com/zudaR107/todo-app/internal/http"
	"github.com/zudaR107/todo-app/internal/observability"
	"github.com/zudaR107/todo-app/internal/redisclient"
	"github.com/zudaR107/todo-app/internal/repo"
	"github.com/zudaR107/todo-app/internal/repo/memory"
	mongorepo "github.com/zudaR107/todo-app/internal/repo/mongo"
	"github.com/zudaR107/todo-app/internal/repo/postgres"
	"github.com/zudaR107/todo-app/internal/session"
)

func main() {
	// a missing .env is fine, real env wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "todo-api",
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	store, err := openStore(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}

	bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	created, err := db.EnsureSuperadmin(bootCtx, store.Users, db.BootstrapConfig{
		Allow:    cfg.AllowBootstrap,
		Email:    cfg.BootstrapSuperadminEmail,
		Password: cfg.BootstrapSuperadminPassword,
	})
	cancel()
	if err != nil {
		log.Error("superadmin bootstrap failed", "err", err)
	} else if !created && cfg.AllowBootstrap {
		log.Debug("superadmin bootstrap skipped")
	}

	revoker, closeRevoker := openRevoker(ctx, cfg, log)

	tokens := auth.NewManager(auth.Config{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})

	router := httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Tokens:   tokens,
		Revoker:  revoker,
		Prom:     prom,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := store.Close(ctx); err != nil {
			log.Error("store close failed", "err", err)
		}
		closeRevoker()
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStore(ctx context.Context, cfg config.Config, obs repo.Observer) (repo.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewStore(), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return repo.Store{}, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return repo.Store{}, err
		}
		return postgres.NewStore(pool, obs), nil

	default:
		client, database, err := db.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return repo.Store{}, err
		}
		if err := mongorepo.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return repo.Store{}, err
		}
		return mongorepo.NewStore(client, database, obs), nil
	}
}

// openRevoker uses redis when REDIS_ADDR is set and reachable, otherwise an
// in-process cutoff table. The second value releases the connection.
func openRevoker(ctx context.Context, cfg config.Config, log *slog.Logger) (session.Revoker, func()) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryRevoker(cfg.RefreshTTL), func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, session revocation is per-process", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return session.NewMemoryRevoker(cfg.RefreshTTL), func() {}
	}

	return session.NewRedisRevoker(rc.Raw(), cfg.RefreshTTL), func() { _ = rc.Close() }
}
