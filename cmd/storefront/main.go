package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	addressrepo "github.com/fjod/go_cart/storefront/internal/address/repository"
	addressservice "github.com/fjod/go_cart/storefront/internal/address/service"
	"github.com/fjod/go_cart/storefront/internal/breaker"
	cartcache "github.com/fjod/go_cart/storefront/internal/cart/cache"
	cartrepo "github.com/fjod/go_cart/storefront/internal/cart/repository"
	cartservice "github.com/fjod/go_cart/storefront/internal/cart/service"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/logging"
	orderrepo "github.com/fjod/go_cart/storefront/internal/order/repository"
	orderservice "github.com/fjod/go_cart/storefront/internal/order/service"
	"github.com/fjod/go_cart/storefront/internal/poller"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/settlement"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	configPath := pflag.String("config", os.Getenv("STOREFRONT_CONFIG"), "path to a YAML/TOML/JSON config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Catalog
	catalogRepo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.Catalog.MigrationsDirPath); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}
	guardedCatalog := breaker.NewCatalog(catalogRepo, breaker.Settings{
		Name:             "catalog",
		ConsecutiveFails: cfg.Catalog.BreakerFailures,
		OpenTimeout:      cfg.Catalog.BreakerTimeout,
	}, logger)

	// Inventory, seeded from the catalog
	stock := inventory.NewMemoryStore(logger)
	defer stock.Close()
	skus, err := catalogRepo.AllSkus(ctx)
	if err != nil {
		return fmt.Errorf("load skus: %w", err)
	}
	for _, sku := range skus {
		if err := stock.SetStock(ctx, sku.ID, sku.Stock); err != nil {
			return fmt.Errorf("seed stock for sku %d: %w", sku.ID, err)
		}
	}
	logger.Info("inventory seeded", zap.Int("skus", len(skus)))

	// Cart
	mongoDB, err := cartrepo.Connect(ctx, cartrepo.ConnectOptions{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.DBName,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
		MinPoolSize:            cfg.Mongo.MinPoolSize,
	})
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	cartRepository := cartrepo.NewMongoRepository(mongoDB)
	if err := cartrepo.EnsureIndexes(ctx, cartRepository); err != nil {
		return fmt.Errorf("cart indexes: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, cart reads go to mongo", zap.Error(err))
	}
	cartSvc := cartservice.NewCartService(cartRepository, cartcache.NewRedisCache(redisClient), guardedCatalog, logger)

	// Orders
	creds := &orderrepo.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsDirPath,
	}
	orders, err := orderrepo.NewRepository(creds)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer orders.Close()
	if err := orders.RunMigrations(creds); err != nil {
		return fmt.Errorf("order migrations: %w", err)
	}
	logger.Info("database migrations completed")

	orderSvc := orderservice.NewOrderService(orders, stock, logger)
	addressSvc := addressservice.NewAddressService(addressrepo.NewRepository(orders.DB()), logger)
	settler := settlement.NewService(cartSvc, guardedCatalog, stock, orders, addressSvc, settlement.Pricing{
		ShippingFee:      cfg.Settlement.ShippingFee,
		FreeShippingOver: cfg.Settlement.FreeShippingOver,
	}, logger)

	// Workers
	var wg sync.WaitGroup
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	outbox := publisher.NewOutboxPoller(orders, settler,
		publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...),
		cfg.Settlement.DrainGrace, logger)
	drainConsumer := poller.NewDrainConsumer(settler,
		poller.NewKafkaReader(cfg.Kafka.Topic, cfg.Kafka.DrainGroupID, cfg.Kafka.Brokers...),
		logger)

	wg.Add(2)
	go func() {
		defer wg.Done()
		outbox.Run(workerCtx)
	}()
	go func() {
		defer wg.Done()
		drainConsumer.Run(workerCtx)
	}()

	// gRPC health
	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.Info("grpc health listening", zap.String("port", cfg.GRPC.Port))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	}()

	// HTTP
	router := h.NewRouter(h.Handlers{
		Products:  h.NewProductHandler(guardedCatalog, stock, cfg.HTTP.RequestTimeout, logger),
		Cart:      h.NewCartHandler(cartSvc, cfg.HTTP.RequestTimeout, logger),
		Orders:    h.NewOrdersHandler(settler, orderSvc, cfg.HTTP.RequestTimeout, logger),
		Addresses: h.NewAddressHandler(addressSvc, cfg.HTTP.RequestTimeout, logger),
	}, cfg.HTTP.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("storefront starting", zap.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("http server error", zap.Error(err))
	}

	logger.Info("shutting down storefront")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	workerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("workers stopped cleanly")
	case <-shutdownCtx.Done():
		logger.Warn("workers didn't stop in time")
	}

	drainConsumer.Close()
	if err := outbox.Close(); err != nil {
		logger.Warn("close kafka writer", zap.Error(err))
	}
	logger.Info("storefront stopped")
	return nil
}
