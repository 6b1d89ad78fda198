package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eion/usersvc/internal/api"
	"github.com/eion/usersvc/internal/config"
	"github.com/eion/usersvc/internal/health"
	"github.com/eion/usersvc/internal/orders"
	"github.com/eion/usersvc/internal/users"
)

// AppState holds all application services
type AppState struct {
	Logger        *zap.Logger
	Config        *config.Config
	UserStore     users.UserStore
	UserService   users.UserService
	OrderClient   *orders.Client
	HealthManager *health.Manager
}

func main() {
	// Load configuration
	config.Load()

	logger := initLogger()
	defer func() { _ = logger.Sync() }()
	logger.Info("Configuration loaded", zap.Bool("use_dynamo", config.Storage().UseDynamo))

	ctx := context.Background()

	as, err := newAppState(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	// Bootstrap the backing table before serving
	if err := as.UserStore.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure user table", zap.Error(err))
	}
	logger.Info("User table ready")

	if err := as.HealthManager.StartupHealthCheck(ctx); err != nil {
		logger.Fatal("Startup health check failed", zap.Error(err))
	}

	handlers := api.NewUserHandlers(as.UserService, as.OrderClient, logger)
	router := api.NewRouter(handlers, as.HealthManager, logger)

	addr := config.Http().Addr()
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	done := setupSignalHandler(as, server, logger)

	logger.Info("Starting user service", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState picks the storage backend once and wires the services around it
func newAppState(ctx context.Context, logger *zap.Logger) (*AppState, error) {
	store, err := newUserStore(ctx, logger)
	if err != nil {
		return nil, err
	}

	ordersConfig := config.Orders()
	orderClient := orders.NewClient(ordersConfig.BaseURL, ordersConfig.Timeout(), logger)

	healthManager := health.NewManager(logger)
	healthManager.AddChecker(health.NewFuncChecker("database", true, store.HealthCheck))
	healthManager.AddChecker(health.NewFuncChecker("order_service", false, orderClient.HealthCheck))

	return &AppState{
		Logger:        logger,
		Config:        config.Get(),
		UserStore:     store,
		UserService:   users.NewUserService(store),
		OrderClient:   orderClient,
		HealthManager: healthManager,
	}, nil
}

func newUserStore(ctx context.Context, logger *zap.Logger) (users.UserStore, error) {
	if config.Storage().UseDynamo {
		dynamoConfig := config.Dynamo()
		logger.Info("Using DynamoDB backend",
			zap.String("region", dynamoConfig.Region),
			zap.String("endpoint", dynamoConfig.Endpoint),
			zap.String("table", dynamoConfig.Table))

		client, err := users.NewDynamoClient(ctx, users.DynamoConfig{
			Region:          dynamoConfig.Region,
			Endpoint:        dynamoConfig.Endpoint,
			AccessKeyID:     dynamoConfig.AccessKeyID,
			SecretAccessKey: dynamoConfig.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		return users.NewDynamoStore(client, dynamoConfig.Table), nil
	}

	pgConfig := config.Postgres()
	logger.Info("Using PostgreSQL backend",
		zap.String("host", pgConfig.Host),
		zap.Int("port", pgConfig.Port),
		zap.String("database", pgConfig.Database),
		zap.String("user", pgConfig.User))

	db := users.OpenPostgres(pgConfig.DSN(), pgConfig.MaxOpenConnections)
	return users.NewPostgresStore(db), nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		if err := as.UserStore.Close(); err != nil {
			logger.Error("Error closing user store", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}
