package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	httpapi "storefront/internal/http"
	"storefront/internal/logging"
	"storefront/internal/repository"
	"storefront/internal/service"

	_ "storefront/docs"
)

// @title Storefront API
// @version 1.0
// @description Catalog, cart, checkout and coupons.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configDir := flag.String("config", "./configs", "directory with base.yaml")
	envName := flag.String("env", os.Getenv("APP_ENV"), "environment overlay, e.g. dev")
	flag.Parse()

	cfg, err := config.Load(*configDir, *envName)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel)

	ctx := context.Background()
	stores, closeStore, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("open storage", "driver", cfg.Storage.Driver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	var idem httpapi.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("connect redis", "addr", cfg.Redis.Addr, "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	} else {
		log.Info("redis disabled, Idempotency-Key is ignored")
	}

	users := service.NewUserService(stores.Users)
	coupons := service.NewCouponService(stores.Coupons, stores.Tx)
	svc := httpapi.Services{
		Users:     users,
		Catalog:   service.NewCatalogService(stores.Categories, stores.Items),
		Carts:     service.NewCartService(stores.Carts, stores.Items, stores.Users),
		Addresses: service.NewAddressService(stores.Addresses, stores.Tx),
		Orders:    service.NewOrderService(stores, coupons),
		Coupons:   coupons,
	}

	if cfg.Admin.Password != "" {
		if _, err := users.EnsureAdmin(logging.WithCtx(ctx, log), cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Error("seed admin", "err", err)
			os.Exit(1)
		}
	}

	tokens := auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TTL)
	srv := httpapi.NewServer(svc, tokens, idem)

	httpServer := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      srv.Engine(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr, "storage", cfg.Storage.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*repository.Stores, func(), error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		return repository.NewMemoryStores(), func() {}, nil
	}
	pool, err := repository.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewPgStore(pool)
	if cfg.Postgres.Migrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("schema migrated")
	}
	return repository.NewPgStores(store), pool.Close, nil
}
