package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/stockroom/internal/config"
	"github.com/georgemunganga/stockroom/internal/database"
	"github.com/georgemunganga/stockroom/internal/modules/category"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"github.com/georgemunganga/stockroom/internal/modules/replenishment"
	"github.com/georgemunganga/stockroom/internal/modules/request"
	"github.com/georgemunganga/stockroom/internal/modules/shelf"
	"github.com/georgemunganga/stockroom/internal/platform/httpx"
	"github.com/georgemunganga/stockroom/internal/platform/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// stores groups the storage implementations selected by database.driver.
type stores struct {
	categories category.Repository
	shelves    shelf.Repository
	items      item.Store
	orders     replenishment.Repository
	requests   request.Repository
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the service and blocks until a signal arrives or the server
// fails. Deferred cleanup runs on every return path.
func run() error {
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Error("tracer shutdown", zap.Error(err))
		}
	}()

	// ── Storage ─────────────────────────────────────────────
	var st stores
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return fmt.Errorf("connect to the database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to the database")
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db, logger); err != nil {
				return fmt.Errorf("migrate the database: %w", err)
			}
		}
		st = postgresStores(db, cfg.Ledger)
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		st = memoryStores()
	}

	// ── Replenishment ───────────────────────────────────────
	var publisher replenishment.Publisher = replenishment.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := replenishment.NewKafkaPublisher(
			replenishment.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
			logger.Named("kafka"))
		defer kp.Close()
		publisher = kp
		logger.Info("publishing replenishment orders",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	trigger := replenishment.NewTrigger(st.orders, publisher, replenishment.Policy{
		DefaultSupplier: cfg.Replenishment.DefaultSupplier,
		LeadTimeDays:    cfg.Replenishment.LeadTimeDays,
	}, logger.Named("replenishment"))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(newRouter(st, trigger, cfg.Ledger, logger), "stockroom"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

func newRouter(st stores, trigger *replenishment.Trigger, ledger config.LedgerConfig, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpx.RequestLogger(logger.Named("http")))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, "ok", nil)
	})

	category.NewHandler(category.NewService(st.categories), logger).RegisterRoutes(router)
	shelf.NewHandler(shelf.NewService(st.shelves), logger).RegisterRoutes(router)
	item.NewHandler(item.NewService(st.items, st.categories, st.shelves), logger).RegisterRoutes(router)
	replenishment.NewHandler(replenishment.NewService(st.orders), logger).RegisterRoutes(router)

	engine := request.NewEngine(request.EngineConfig{
		Items:            st.items,
		Ledger:           st.items,
		Requests:         st.requests,
		Trigger:          trigger,
		Logger:           logger.Named("reservation"),
		OperationTimeout: ledger.OperationTimeout,
	})
	request.NewHandler(request.NewService(st.requests, st.items, engine, logger), logger).RegisterRoutes(router)
	return router
}

// serve runs srv until ctx is done or it stops on its own. A listener
// failure is returned instead of exiting so the caller's cleanup still runs.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func postgresStores(db *sql.DB, ledger config.LedgerConfig) stores {
	return stores{
		categories: category.NewPostgresRepository(db),
		shelves:    shelf.NewPostgresRepository(db),
		items: item.NewPostgresStore(db, item.LedgerOptions{
			LockTimeout: ledger.LockTimeout,
			MaxRetries:  ledger.MaxRetries,
			RetryDelay:  ledger.RetryDelay,
		}),
		orders:   replenishment.NewPostgresRepository(db),
		requests: request.NewPostgresRepository(db),
	}
}

func memoryStores() stores {
	items := item.NewMemoryStore()
	return stores{
		categories: category.NewMemoryRepository(items.CategoryInUse),
		shelves:    shelf.NewMemoryRepository(items.ShelfInUse),
		items:      items,
		orders:     replenishment.NewMemoryRepository(),
		requests:   request.NewMemoryRepository(),
	}
}
