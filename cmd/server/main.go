package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authapi/backend/internal/config"
	domain "authapi/backend/internal/domain/auth"
	"authapi/backend/internal/httpserver"
	"authapi/backend/internal/infrastructure/memory"
	"authapi/backend/internal/infrastructure/mongo"
	"authapi/backend/internal/infrastructure/password"
	"authapi/backend/internal/infrastructure/postgres"
	"authapi/backend/internal/infrastructure/token"
	"authapi/backend/internal/logging"
	authusecase "authapi/backend/internal/usecase/auth"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	users, closeStore, err := openUserStore(connectCtx, cfg, logger)
	cancelConnect()
	if err != nil {
		return err
	}
	defer closeStore()

	hasher, err := password.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokenManager := token.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	authService := authusecase.NewService(users, hasher, tokenManager)

	var metrics *httpserver.Metrics
	if cfg.MetricsEnabled {
		metrics = httpserver.NewMetrics()
	}
	server := httpserver.NewServer(cfg, logger, authService, users, metrics)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", server.Addr()))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		return err
	}
	logger.Info("graceful shutdown completed")
	return nil
}

// openUserStore connects the configured user store and returns it with a
// function that releases its resources.
func openUserStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.UserRepository, func(), error) {
	switch cfg.UserStore {
	case config.StoreMongo:
		db, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		repo := mongo.NewUserRepository(db.DB)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		logger.Info("connected to mongo", slog.String("database", db.Name()))
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(closeCtx); err != nil {
				logger.Warn("mongo disconnect failed", slog.Any("error", err))
			}
		}, nil

	case config.StorePostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("connected to postgres", slog.String("database", db.Name()))
		return postgres.NewUserRepository(db.Pool), db.Close, nil

	case config.StoreMemory:
		logger.Warn("using in-memory user store; users are lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
}
