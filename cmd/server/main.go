package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	echoapi "github.com/safenode-dev/safenode/api/echo"
	"github.com/safenode-dev/safenode/config"
	"github.com/safenode-dev/safenode/internal/auth"
	"github.com/safenode-dev/safenode/internal/federation"
	"github.com/safenode-dev/safenode/internal/oauthflow"
	"github.com/safenode-dev/safenode/log"
	"github.com/safenode-dev/safenode/mongodb"
	"github.com/safenode-dev/safenode/services"
	"github.com/safenode-dev/safenode/tracing"
)

var (
	appLogger      log.Logger
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	appLogger.Info(ctx, "Starting safenode identity server", map[string]interface{}{
		"http_port":         cfg.HTTPPort,
		"mongo_db_name":     cfg.MongoDBName,
		"transaction_store": cfg.TransactionStore,
	})

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}
	tracerProvider = tp

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		appLogger.Fatal(ctx, "Failed to connect to MongoDB", err)
	}
	db, err := mongodb.GetDatabase()
	if err != nil {
		appLogger.Fatal(ctx, "Failed to get database handle", err)
	}

	accounts, err := mongodb.NewAccountRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize account repository", err)
	}

	transactions := newTransactionStore(cfg)
	defer transactions.Stop()

	registry := federation.NewRegistry(cfg.ProviderConfigs())
	fedService := federation.NewService(registry, cfg.CallbackBaseURL+"/auth/sso/callback")

	hasher := auth.NewBcryptPasswordHasher(0)
	identity := services.NewIdentityService(accounts, hasher)
	tokens := services.NewTokenService(
		[]byte(cfg.JWTSigningSecret),
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		accounts,
	)
	sso := services.NewSSOService(fedService, transactions, identity, tokens)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := echoapi.NewAuthAPI(sso, tokens, accounts, cfg.FrontendErrorURL)
	api.RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info(ctx, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
	if err := mongodb.Disconnect(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "MongoDB disconnect failed", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown failed", err)
	}
}

// newTransactionStore picks where in-flight SSO state lives. Redis lets a
// login initiated on one instance complete on another.
func newTransactionStore(cfg *config.ServerConfig) oauthflow.TransactionStore {
	if cfg.TransactionStore == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return oauthflow.NewRedisTransactionStore(client, oauthflow.TransactionTTL)
	}
	return oauthflow.NewMemoryTransactionStore(oauthflow.TransactionTTL)
}
