package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/infra/httpx"
	catalogapp "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/app"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/app"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/cache"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/config"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/telemetry"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storage/sqlite"
)

const serviceName = "bakery-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTelEndpoint,
			Environment: cfg.OTelEnvironment,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			slog.Error("failed to initialise tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("failed to create data dir", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var c cache.Cache
	if cfg.RedisAddr != "" {
		c = cache.NewRedisCache(cfg.RedisAddr, serviceName)
		if err := cache.Ping(ctx, c); err != nil {
			// Reads and idempotency fall back to SQLite while redis is away.
			slog.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
	} else {
		c = cache.NewMemoryCache(serviceName)
	}

	catalogRepo := sqlite.NewCatalogRepository(db)
	deliveryRepo := sqlite.NewDeliveryRepository(db)
	orderRepo := sqlite.NewOrderRepository(db)

	if cfg.CatalogSeedFile != "" {
		if err := seed(ctx, cfg.CatalogSeedFile, catalogRepo, deliveryRepo); err != nil {
			slog.Error("failed to seed catalog", "file", cfg.CatalogSeedFile, "error", err)
			os.Exit(1)
		}
	}

	optionCatalog := catalogapp.NewOptionCatalog(catalogRepo, c, cfg.CacheTTL)
	deliveries := delivery.NewService(deliveryRepo, c, cfg.CacheTTL)
	// Submissions are checked against the database so a retired option is
	// refused even while a cached copy of its group is still served.
	liveCatalog := catalogapp.NewOptionCatalog(catalogRepo, nil, 0)
	orders := app.NewOrderService(orderRepo, liveCatalog, deliveries, app.WithCache(c, cfg.IdempotencyTTL))

	handler := httpx.NewHandler(optionCatalog, orders, deliveries, db)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("bakery API running", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}
}

// seed loads the seed file only into an empty catalog.
func seed(ctx context.Context, path string, repo *sqlite.CatalogRepository, cities *sqlite.DeliveryRepository) error {
	empty, err := repo.Empty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		slog.InfoContext(ctx, "catalog already populated, skipping seed")
		return nil
	}
	f, err := catalogapp.LoadSeedFile(path)
	if err != nil {
		return err
	}
	return catalogapp.Seed(ctx, repo, cities, f)
}
