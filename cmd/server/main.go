package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/httpx"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/memstore"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/notify"
	"storefront-be/internal/order"
	"storefront-be/internal/redisx"
	"storefront-be/internal/review"
	"storefront-be/internal/tracing"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	handler    http.Handler
	limiter    *middleware.RateLimiter
	dispatcher *notify.Dispatcher
	closers    []func() error
}

func (a *app) close() {
	a.dispatcher.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.L().Warn("close failed", zap.Error(err))
		}
	}
}

type stores struct {
	orders  order.Repository
	catalog catalog.Repository
	stock   inventory.Repository
	carts   cart.Repository
	reviews review.Repository
	uow     db.UnitOfWork
	idem    order.IdempotencyStore
	ping    func(ctx context.Context) error
}

func openStores(cfg *config.Config) (*stores, func() error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		st := memstore.New()
		seed(st)
		logger.L().Info("using in-memory store")
		return &stores{
			orders:  st.Orders(),
			catalog: st.Catalog(),
			stock:   st.Inventory(),
			carts:   st.Carts(),
			reviews: st.Reviews(),
			uow:     st,
			idem:    st.Idempotency(),
		}, func() error { return nil }
	}

	database := db.InitDB(cfg)
	return &stores{
		orders:  order.NewRepository(database),
		catalog: catalog.NewRepository(database),
		stock:   inventory.NewRepository(database),
		carts:   cart.NewRepository(database),
		reviews: review.NewRepository(database),
		uow:     db.NewTxManager(database),
		ping:    database.PingContext,
	}, database.Close
}

// seed gives the in-memory store something to sell.
func seed(st *memstore.Store) {
	st.PutStore(catalog.Store{ID: "store-1", OwnerID: "seller-1", Name: "Demo Store"})
	st.PutItem(catalog.Item{ID: "item-1", StoreID: "store-1", Name: "Desk Lamp", Price: 250000, Stock: 20, Active: true})
	st.PutItem(catalog.Item{ID: "item-2", StoreID: "store-1", Name: "Ceramic Mug", Price: 45000, Discount: 10, Stock: 100, Active: true})
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	s, closeStores := openStores(cfg)
	a.closers = append(a.closers, closeStores)

	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		if err := redisx.Ping(ctx, rdb); err != nil {
			rdb.Close()
			return nil, err
		}
		s.idem = redisx.NewIdempotencyStore(rdb, redisx.DefaultTTL)
		a.closers = append(a.closers, rdb.Close)
		logger.L().Info("idempotency keys stored in redis", zap.String("addr", cfg.RedisAddr))
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyTopic)
		notifier = kn
		a.closers = append(a.closers, kn.Close)
		logger.L().Info("notifications published to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.NotifyTopic),
		)
	}
	a.dispatcher = notify.NewDispatcher(notifier, notify.DefaultTimeout)

	stats := metrics.NewCheckoutStats()
	deps := order.Dependencies{
		Orders:      s.orders,
		Catalog:     s.catalog,
		Inventory:   inventory.NewLedger(s.stock),
		Carts:       s.carts,
		UnitOfWork:  s.uow,
		Dispatcher:  a.dispatcher,
		Idempotency: s.idem,
		Stats:       stats,
	}
	if s.idem == nil {
		logger.L().Warn("no idempotency store configured, Idempotency-Key is ignored")
	}

	orderSvc := order.NewService(deps)
	cartSvc := cart.NewService(s.carts, s.catalog)
	reviewSvc := review.NewService(s.reviews, s.orders, s.catalog, s.uow)

	a.limiter = middleware.NewRateLimiter(cfg.InternalKey)
	a.handler = httpx.NewRouter(
		httpx.NewHandler(orderSvc, cartSvc, reviewSvc, stats, s.ping),
		httpx.RouterConfig{
			JWTSecret: []byte(cfg.SecretKey),
			Limiter:   a.limiter,
		},
	)
	return a, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.L().Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
