package main

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/sales-api/config"
	_ "github.com/d60-Lab/sales-api/docs"
	"github.com/d60-Lab/sales-api/internal/api/handler"
	"github.com/d60-Lab/sales-api/internal/api/middleware"
	"github.com/d60-Lab/sales-api/internal/repository"
	"github.com/d60-Lab/sales-api/internal/service"
	"github.com/d60-Lab/sales-api/internal/vnpay"
	"github.com/d60-Lab/sales-api/pkg/database"
	"github.com/d60-Lab/sales-api/pkg/logger"
	"github.com/d60-Lab/sales-api/pkg/tracing"
)

const serviceName = "sales-api"

// @title Sales API
// @version 1.0
// @description 订单与 VNPay 结算服务
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg, serviceName)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
	} else {
		defer func() { _ = shutdownTracing(ctx) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		panic(err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		panic(err)
	}

	var cache *service.OrderCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = service.NewOrderCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
	}

	gateway, err := vnpay.NewGateway(cfg.VnPay)
	if err != nil {
		panic(err)
	}

	// repositories & services
	userRepo := repository.NewUserRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	userSvc := service.NewUserService(userRepo, cfg.JWT)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, cache)
	paymentSvc := service.NewPaymentService(gateway, orderRepo, paymentRepo, cache)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		otelgin.Middleware(serviceName),
	)

	h := handler.New(userSvc, orderSvc, paymentSvc, gateway)
	h.RegisterRoutes(r, cfg.JWT)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
