package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	echoapi "go.pilab.hu/idp/api/echo"
	"go.pilab.hu/idp/cache"
	redisstore "go.pilab.hu/idp/cache/redis"
	"go.pilab.hu/idp/config"
	"go.pilab.hu/idp/internal/gateway"
	"go.pilab.hu/idp/internal/metrics"
	"go.pilab.hu/idp/internal/telemetry"
	"go.pilab.hu/idp/mongodb"
	"go.pilab.hu/idp/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	if cfg.LogPretty {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	zlog.Info().Str("http_port", cfg.HTTPPort).Str("mongo_db", cfg.MongoDBName).Msg("Starting identity-provider server")

	promRegistry := prometheus.NewRegistry()
	metrics.Register(promRegistry)

	tp, err := telemetry.InitTracer()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize tracer provider")
	}
	mp, err := telemetry.InitMeterProvider(promRegistry)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize meter provider")
	}

	ctx := context.Background()
	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize MongoDB")
	}
	db := mongodb.GetDB()

	clientRepo := mongodb.NewClientRepositoryMongo(db)
	authCodeRepo := mongodb.NewAuthCodeRepository(db)
	registry, err := mongodb.NewPublicKeyRegistryRepositoryMongo(db)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize public key registry")
	}

	var (
		authTxnStore    cache.AuthTransactionStore
		bindingTxnStore cache.BindingTransactionStore
	)
	if cfg.RedisURI != "" {
		opts, err := goredis.ParseURL(cfg.RedisURI)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Invalid REDIS_URI")
		}
		store := redisstore.NewTransactionStore(goredis.NewClient(opts), cfg.RedisPrefix)
		authTxnStore = store
		bindingTxnStore = store
		zlog.Info().Msg("Using Redis transaction store")
	} else {
		store := cache.NewMemoryTransactionStore()
		defer store.Close()
		authTxnStore = store
		bindingTxnStore = store
		zlog.Info().Msg("Using in-memory transaction store")
	}

	gw := gateway.NewRestAuthenticationGateway(cfg.GatewayBaseURL)

	authorizationService := services.NewAuthorizationService(
		clientRepo, authTxnStore, authCodeRepo, gw, gw,
		services.AuthorizationConfig{
			AuthPartnerID:  cfg.AuthPartnerID,
			AuthLicenseKey: cfg.AuthLicenseKey,
			TransactionTTL: time.Duration(cfg.TransactionTTLSecs) * time.Second,
			AuthCodeTTL:    time.Duration(cfg.AuthCodeTTLSecs) * time.Second,
		},
	)
	bindingService := services.NewWalletBindingService(
		bindingTxnStore, gw, registry, services.NewJWEEncryptionService(),
		services.BindingConfig{
			AuthPartnerID:  cfg.AuthPartnerID,
			AuthLicenseKey: cfg.AuthLicenseKey,
			KeyExpireDays:  cfg.BindingKeyExpireDays,
			SaltLength:     cfg.BindingSaltLength,
		},
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/health", func(c echo.Context) error {
		if err := mongodb.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	echoapi.NewIdentityAPI(authorizationService, bindingService).RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := mongodb.Disconnect(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("MongoDB disconnect failed")
	}
	telemetry.Shutdown(shutdownCtx, tp, mp)
}
