package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/config"
	"qrdine-order-service/internal/db"
	httpapi "qrdine-order-service/internal/http"
	"qrdine-order-service/internal/http/handlers"
	"qrdine-order-service/internal/logger"
	"qrdine-order-service/internal/middleware"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/promo"
	"qrdine-order-service/internal/queue"
	"qrdine-order-service/internal/session"
	"qrdine-order-service/internal/storage"
	"qrdine-order-service/internal/waiter"
	"qrdine-order-service/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := newCatalog(ctx, log, cfg)

	promotions, err := promo.LoadSeed()
	if err != nil {
		log.Fatal("promotions seed failed", zap.Error(err))
	}

	queueClient := connectQueue(log, cfg)
	if queueClient != nil {
		defer queueClient.Close()
	}

	wsServer := ws.New(log, cfg)
	wsServer.Catalog = provider
	wsServer.Promotions = promotions

	publishers := ordering.Fanout{wsServer}
	waiterListeners := []waiter.Listener{wsServer.PublishWaiter}
	if queueClient != nil {
		events := queue.NewEventPublisher(queueClient, log)
		publishers = append(publishers, events)
		waiterListeners = append(waiterListeners, events.PublishWaiter)
	}

	sessions := session.NewRegistry(log, cfg.SessionIdleTTL, session.WithStoreOptions(
		ordering.WithPublisher(publishers),
		ordering.WithOrderETA(cfg.OrderETA),
	))
	waiterListeners = append(waiterListeners, session.WaiterNotifier(sessions))

	waiterService := waiter.NewService(log, cfg.WaiterCallWindow, func(ctx context.Context, e waiter.Event) {
		for _, l := range waiterListeners {
			l(ctx, e)
		}
	})
	defer waiterService.Close()

	sessions.OnClose(func(sessionID string) {
		waiterService.Cancel(context.Background(), sessionID)
		wsServer.CloseSession(sessionID)
	})
	wsServer.Sessions = sessions
	wsServer.Waiter = waiterService

	go sessions.Run(ctx, cfg.SessionSweepInterval)

	if queueClient != nil {
		startKitchenConsumer(ctx, log, cfg, queueClient, sessions)
	}

	h := &handlers.Handler{
		Logger:     log,
		Config:     cfg,
		Catalog:    provider,
		Sessions:   sessions,
		Accounts:   auth.NewAccountStore(cfg.BcryptCost),
		Waiter:     waiterService,
		Promotions: promotions,
		Latency:    middleware.NewLatencyTracker(200),
	}
	if objectStore := openObjectStore(ctx, log, cfg); objectStore != nil {
		h.Receipts = objectStore
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(log, cfg, h, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("order api ready", zap.String("base", "/api"))
		log.Info("order ws ready", zap.String("base", "/ws"))
		log.Info("order service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

// newCatalog reads venues from Postgres when DATABASE_URL is set and from the
// embedded demo catalog otherwise.
func newCatalog(ctx context.Context, log *zap.Logger, cfg config.Config) catalog.Provider {
	if cfg.DatabaseURL == "" {
		venues, err := catalog.LoadSeed()
		if err != nil {
			log.Fatal("catalog seed failed", zap.Error(err))
		}
		log.Info("catalog loaded from seed", zap.Int("venues", len(venues)), zap.Duration("latency", cfg.CatalogLatency))
		return catalog.NewMemoryProvider(venues, cfg.CatalogLatency)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	go func() {
		<-ctx.Done()
		pool.Close()
	}()
	if cfg.DatabaseAutoMigrate {
		if err := db.Migrate(ctx, pool, catalog.Schema); err != nil {
			log.Fatal("catalog migration failed", zap.Error(err))
		}
	}
	log.Info("catalog backed by postgres")
	return catalog.NewPostgresProvider(pool)
}

// connectQueue opens RabbitMQ and declares the topology. Outside production
// a broker failure only disables event forwarding.
func connectQueue(log *zap.Logger, cfg config.Config) *queue.Client {
	if cfg.RabbitMQURL == "" {
		log.Info("event forwarding disabled (RABBITMQ_URL is empty)")
		return nil
	}

	fail := func(msg string, err error) {
		if cfg.Env == "production" {
			log.Fatal(msg, zap.Error(err))
		}
		log.Warn(msg+"; continuing without broker", zap.Error(err))
	}

	qc, err := queue.New(cfg.RabbitMQURL)
	if err != nil {
		fail("rabbitmq connection failed", err)
		return nil
	}
	if err := queue.EnsureEventsTopology(qc); err != nil {
		fail("rabbitmq events topology failed", err)
		_ = qc.Close()
		return nil
	}
	if err := queue.EnsureKitchenTopology(qc); err != nil {
		fail("rabbitmq kitchen topology failed", err)
		_ = qc.Close()
		return nil
	}
	log.Info("rabbitmq enabled",
		zap.String("exchange", queue.EventsExchange),
		zap.String("kitchenQueue", queue.KitchenStatusQueue),
	)
	return qc
}

func startKitchenConsumer(ctx context.Context, log *zap.Logger, cfg config.Config, qc *queue.Client, sessions *session.Registry) {
	if cfg.RabbitMQWorkerMode != "daemon" {
		log.Info("kitchen consumer disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
		return
	}
	log.Info("kitchen consumer enabled", zap.String("mode", "daemon"))
	go func() {
		err := qc.ConsumeWithRetry(ctx, queue.KitchenStatusQueue, queue.KitchenStatusHandler(sessions, log), 5, 5*time.Second)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("kitchen consumer stopped", zap.Error(err))
		}
	}()
}

func openObjectStore(ctx context.Context, log *zap.Logger, cfg config.Config) *storage.ObjectStore {
	osCfg := cfg.ObjectStore()
	if !osCfg.Enabled() {
		log.Info("receipt archive disabled (object store not configured)")
		return nil
	}
	store, err := storage.NewObjectStore(ctx, osCfg)
	if err != nil {
		log.Warn("object store init failed; receipt archive disabled", zap.Error(err))
		return nil
	}
	log.Info("receipt archive enabled", zap.String("bucket", osCfg.Bucket))
	return store
}
