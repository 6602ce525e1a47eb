package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	otelapi "go.opentelemetry.io/otel"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/attewell/loadlist/internal/api"
	applogistics "github.com/attewell/loadlist/internal/app/logistics"
	appsync "github.com/attewell/loadlist/internal/app/sync"
	"github.com/attewell/loadlist/internal/config/fileloader"
	"github.com/attewell/loadlist/internal/infra/auth"
	ordersourcemem "github.com/attewell/loadlist/internal/infra/ordersource/memory"
	registrymem "github.com/attewell/loadlist/internal/infra/registry/memory"
	catalogmem "github.com/attewell/loadlist/internal/infra/storage/catalog/memory"
	catalogpg "github.com/attewell/loadlist/internal/infra/storage/catalog/postgres"
	logisticsmem "github.com/attewell/loadlist/internal/infra/storage/logistics/memory"
	logisticspg "github.com/attewell/loadlist/internal/infra/storage/logistics/postgres"
	"github.com/attewell/loadlist/pkg/common"
	"github.com/attewell/loadlist/pkg/common/logger"
	"github.com/attewell/loadlist/pkg/common/otel"
)

const serviceType = "loadlistd"

func main() {
	_, _ = maxprocs.Set()

	configPath := flag.String("config", "config.yaml", "path to the service configuration file")
	flag.Parse()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	var lg *logger.Logger

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n", r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("LOADLIST-%s", hostname)
	metadata := map[string]string{
		"service":  svcName,
		"hostname": hostname,
		"app":      serviceType,
	}

	lg = logger.NewWithMetadata(os.Stdout, logger.LevelDebug, svcName, traceIDFn, logEvents, metadata)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := fileloader.NewFileLoader(*configPath).Load(ctx)
	if err != nil {
		lg.Error(ctx, "failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	tp, telemetryTeardown, err := otel.InitTelemetry(lg, otel.Config{
		ServiceName:      svcName,
		ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
		Probability:      cfg.Telemetry.Probability,
		ResourceAttributes: map[string]string{
			"library.language": "go",
			"host.name":        hostname,
		},
		InsecureExporter: cfg.Telemetry.Insecure,
	})
	if err != nil {
		lg.Error(ctx, "failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer telemetryTeardown(ctx)

	tracer := tp.Tracer(svcName)

	ready := &atomic.Bool{}
	healthServer := common.NewHealthServer(ready)
	defer func() {
		if err := healthServer.Server().Shutdown(ctx); err != nil {
			lg.Error(ctx, "Error shutting down health server", "error", err)
		}
	}()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN)
	if err != nil {
		lg.Error(ctx, "failed to parse db config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		lg.Error(ctx, "failed to open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := runMigrations(ctx, pool); err != nil {
		lg.Error(ctx, "failed to run migrations", "error", err)
		os.Exit(1)
	}
	lg.Info(ctx, "Migrations applied successfully. Starting application...")

	mp := otelapi.GetMeterProvider()
	scanMetrics, err := applogistics.NewScanMetrics(mp)
	if err != nil {
		lg.Error(ctx, "failed to create scan metrics", "error", err)
		os.Exit(1)
	}
	syncMetrics, err := appsync.NewSyncMetrics(mp)
	if err != nil {
		lg.Error(ctx, "failed to create sync metrics", "error", err)
		os.Exit(1)
	}

	// Local cache is in memory; the remote postgres store is authoritative
	// across devices and is converged with through the reconciler.
	listCache := logisticsmem.NewScanListStore()
	stockCache := catalogmem.NewStockItemStore()
	remoteLists := logisticspg.NewScanListStore(pool, tracer)
	remoteStock := catalogpg.NewStockItemStore(pool, tracer)
	registry := registrymem.NewRegistry()

	orderSource := ordersourcemem.NewOrderSource()
	perms := auth.AllowAll{}
	session := api.HeaderSession{}

	outbox := appsync.NewOutbox(
		appsync.WithMaxAttempts(cfg.Sync.Retry.MaxAttempts),
		appsync.WithBackOffFactory(backOffFactory(cfg.Sync.Retry.InitialWait, cfg.Sync.Retry.MaxWait)),
	)
	limiter := common.NewRateLimiter(cfg.Sync.PushRateLimit, cfg.Sync.PushBurst)
	reconciler := appsync.NewReconciler(
		listCache, stockCache, remoteLists, remoteStock, orderSource,
		outbox, limiter, lg, tracer, syncMetrics,
	)

	engine := applogistics.NewEngine(
		listCache, registry, perms, session, reconciler, scanMetrics, lg, tracer,
	)
	generator := applogistics.NewGenerator(
		listCache, orderSource, perms, session, reconciler, scanMetrics, lg, tracer,
	)

	apiServer := api.NewServer(lg, tracer, engine, generator, reconciler, orderSource)
	httpServer := &http.Server{
		Addr:         ":6000",
		Handler:      apiServer.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	watcher := logisticspg.NewWatcher(pool, lg)
	changes, err := watcher.Watch(ctx, "")
	if err != nil {
		lg.Error(ctx, "failed to start scan list watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		for change := range changes {
			lg.Debug(ctx, "remote scan list changed",
				"op", change.Op, "list_id", change.ListID, "order_id", change.OrderID)
		}
	}()

	go reconciler.Run(ctx, cfg.Sync.DrainInterval)
	go runPeriodicPulls(ctx, lg, reconciler, cfg.Sync.TrackedOrders, cfg.Sync.PullInterval)

	errCh := make(chan error, 1)
	go func() {
		lg.Info(ctx, "API server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ready.Store(true)
	lg.Info(ctx, "load list service initialized", "tracked_orders", len(cfg.Sync.TrackedOrders))

	select {
	case sig := <-sigCh:
		lg.Info(ctx, "Received shutdown signal", "signal", sig)
	case err := <-errCh:
		lg.Error(ctx, "API server error", "error", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lg.Error(shutdownCtx, "Error shutting down API server", "error", err)
	}

	// Flush whatever the outbox still holds before the pool closes.
	if err := reconciler.Drain(shutdownCtx); err != nil {
		lg.Error(shutdownCtx, "final outbox drain failed", "error", err)
	}
}

// backOffFactory builds the per-operation retry policy for the outbox.
func backOffFactory(initial, max time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = initial
		bo.MaxInterval = max
		bo.MaxElapsedTime = 0
		return bo
	}
}

func runPeriodicPulls(ctx context.Context, lg *logger.Logger, reconciler *appsync.Reconciler, orders []string, interval time.Duration) {
	if len(orders) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, orderID := range orders {
				if err := reconciler.PullOrder(ctx, orderID); err != nil && ctx.Err() == nil {
					lg.Error(ctx, "order pull failed", "order_id", orderID, "error", err)
				}
			}
		}
	}
}

// runMigrations uses golang-migrate to apply all up migrations from "db/migrations".
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("could not acquire connection: %w", err)
	}
	defer conn.Release()

	db := stdlib.OpenDBFromPool(pool)

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("could not create pgx driver: %w", err)
	}

	const migrationsPath = "file://db/migrations"
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}
