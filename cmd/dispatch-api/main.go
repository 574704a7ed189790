// README: Entry point; loads config, wires services and the real-time hub, serves HTTP until signalled.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridedispatch/internal/config"
	httptransport "ridedispatch/internal/http"
	"ridedispatch/internal/http/middleware"
	"ridedispatch/internal/infra"
	"ridedispatch/internal/logger"
	"ridedispatch/internal/modules/device"
	"ridedispatch/internal/modules/dispatch"
	"ridedispatch/internal/modules/matching"
	"ridedispatch/internal/modules/popularity"
	"ridedispatch/internal/modules/pricing"
	"ridedispatch/internal/modules/ride"
	"ridedispatch/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.HTTP.Environment); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.MigrateOnBoot {
		if err := infra.Migrate(cfg.DB.DSN); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("postgres", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	mongoClient, err := infra.NewMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal("mongo", zap.Error(err))
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	pricingSvc := pricing.NewService(
		pricing.NewStore(dbPool),
		pricing.NewCache(redisClient, cfg.Pricing.CacheTTL),
		logger.Named("pricing"),
	)
	if n, err := pricingSvc.Warm(ctx); err != nil {
		log.Warn("ride type cache warm-up failed", zap.Error(err))
	} else {
		log.Info("ride type cache warmed", zap.Int("ride_types", n))
	}

	workerStore := matching.NewMongoStore(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
	if err := workerStore.EnsureIndexes(ctx); err != nil {
		log.Fatal("worker index", zap.Error(err))
	}
	matchingSvc := matching.NewService(workerStore, cfg.Matching, log)
	if cfg.Matching.ReserveWorkers {
		matchingSvc.WithReserver(matching.NewLeaseStore(redisClient))
	}

	rideSvc := ride.NewService(ride.NewStore(dbPool))
	popularitySvc := popularity.NewService(popularity.NewStore(redisClient))
	deviceSvc := device.NewService(device.NewStore(dbPool))
	hub := realtime.NewHub(log)

	deps := dispatch.Deps{
		Pricing:    pricingSvc,
		Ledger:     rideSvc,
		Locator:    matchingSvc,
		Popularity: popularitySvc,
		Devices:    deviceSvc,
		Notifier:   hub,
	}
	if w := infra.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic); w != nil {
		defer w.Close()
		deps.Publisher = dispatch.NewKafkaPublisher(w)
	}
	dispatchSvc := dispatch.NewService(deps, cfg.Dispatch, log)

	if cfg.HTTP.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit, log)
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Dispatch:       dispatchSvc,
		Rides:          rideSvc,
		Idempotency:    dispatch.NewIdempotency(redisClient, cfg.Dispatch.IdempotencyTTL, cfg.Dispatch.IdempotencyPendingTTL),
		RideTypes:      pricingSvc,
		Popularity:     popularitySvc,
		Hub:            hub,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
	})

	server := httptransport.NewServer(cfg.HTTP.Addr, router, log)
	if err := server.Run(ctx, cfg.HTTP.ShutdownTimeout); err != nil {
		log.Fatal("http server", zap.Error(err))
	}
}
