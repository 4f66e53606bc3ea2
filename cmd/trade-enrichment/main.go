package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/Checker-Finance/trade-enrichment/internal/api"
	"github.com/Checker-Finance/trade-enrichment/internal/catalog"
	"github.com/Checker-Finance/trade-enrichment/internal/publisher"
	"github.com/Checker-Finance/trade-enrichment/internal/trade"
	"github.com/Checker-Finance/trade-enrichment/pkg/config"
	"github.com/Checker-Finance/trade-enrichment/pkg/logger"
	"github.com/Checker-Finance/trade-enrichment/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Infof("starting [%s]...", cfg.ServiceName)

	// --- Optional NATS connection for catalog change events ---
	var nc *nats.Conn
	var opts []catalog.Option
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err := publisher.New(nc, cfg.CatalogEventSubject, cfg.CatalogEventStream, cfg.ServiceName, logger.Named("publisher"))
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		opts = append(opts, catalog.WithNotifier(pub))
	} else {
		logg.Warn("NATS_URL not configured; catalog change events disabled")
	}

	// --- Product catalog, seeded once before the server accepts requests ---
	products := catalog.New(logger.Named("catalog"), opts...)
	reader, closeReader := seedReader(ctx, cfg)
	seedCtx, cancelSeed := context.WithTimeout(ctx, cfg.SeedTimeout)
	catalog.Load(seedCtx, products, reader)
	cancelSeed()
	closeReader()

	// --- Enrichment pipeline ---
	enricher := trade.NewEnricher(products, trade.NewProcessor(logger.Named("trade")), logger.Named("enrich"))

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
		// trade uploads are consumed line by line
		StreamRequestBody: true,
	})

	api.RegisterRoutes(app, logger.Named("http"), nc,
		api.NewProductsHandler(logger.Named("products"), products),
		api.NewEnrichHandler(logger.Named("enrich"), enricher),
	)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("["+cfg.ServiceName+"] running",
		"env", cfg.Env,
		"product_source", cfg.ProductSource,
		"products", products.Len(),
		"events", nc != nil)

	<-ctx.Done()
	logg.Infof("shutting down [%s]...", cfg.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
}

// seedReader builds the configured product seed reader and a func releasing its connections.
// Connection failures are not fatal: the returned reader reports them and the catalog starts empty.
func seedReader(ctx context.Context, cfg *config.Config) (catalog.Reader, func()) {
	logg := logger.S()
	log := logger.Named("seed")

	switch cfg.ProductSource {
	case config.SourceRedis:
		logg.Infow("seeding catalog from redis", "addr", utils.MaskDSN(cfg.RedisAddr), "key", cfg.RedisProductKey)
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPass,
		})
		return catalog.NewRedisReader(rdb, cfg.RedisProductKey, log), func() { _ = rdb.Close() }

	case config.SourcePostgres:
		logg.Infow("seeding catalog from postgres", "dsn", utils.MaskDSN(cfg.DatabaseURL), "table", cfg.ProductTable)
		pool, err := newPGPool(ctx, cfg)
		if err != nil {
			return failedReader{err: err}, func() {}
		}
		r, err := catalog.NewPostgresReader(pool, cfg.ProductTable, log)
		if err != nil {
			pool.Close()
			return failedReader{err: err}, func() {}
		}
		return r, pool.Close

	default:
		if cfg.ProductSource != config.SourceFile {
			logg.Warnw("unknown PRODUCT_SOURCE, falling back to file", "source", cfg.ProductSource)
		}
		logg.Infow("seeding catalog from file", "path", cfg.ProductListFile)
		return catalog.NewFileReader(cfg.ProductListFile, log), func() {}
	}
}

func newPGPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if cfg.PGMaxConns > 0 {
		pgCfg.MaxConns = int32(cfg.PGMaxConns)
	}
	if cfg.PGMinConns > 0 {
		pgCfg.MinConns = int32(cfg.PGMinConns)
	}
	if cfg.PGMaxConnLifetime > 0 {
		pgCfg.MaxConnLifetime = cfg.PGMaxConnLifetime
	}
	if cfg.PGMaxConnIdleTime > 0 {
		pgCfg.MaxConnIdleTime = cfg.PGMaxConnIdleTime
	}
	if cfg.PGHealthCheckPeriod > 0 {
		pgCfg.HealthCheckPeriod = cfg.PGHealthCheckPeriod
	}
	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

// failedReader surfaces a seed source setup error through catalog.Load.
type failedReader struct{ err error }

func (r failedReader) ReadProducts(context.Context) (map[string]string, error) {
	return nil, r.err
}
