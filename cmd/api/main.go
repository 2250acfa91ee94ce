// @title                       PFE Backend API
// @version                     1.0
// @description                 Authentication, account management and vivarium telemetry API.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/api"
	"github.com/eparriel/pfe-backend/internal/api/handler"
	"github.com/eparriel/pfe-backend/internal/core/ports"
	"github.com/eparriel/pfe-backend/internal/core/service"
	"github.com/eparriel/pfe-backend/internal/infrastructure/config"
	mongodb "github.com/eparriel/pfe-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/eparriel/pfe-backend/internal/infrastructure/db/redis"
	sqlitedb "github.com/eparriel/pfe-backend/internal/infrastructure/db/sqlite"
	"github.com/eparriel/pfe-backend/internal/infrastructure/influx"
	"github.com/eparriel/pfe-backend/internal/infrastructure/queue"
	"github.com/eparriel/pfe-backend/internal/infrastructure/security"
	"github.com/eparriel/pfe-backend/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Pretty: true})
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "pfe-backend",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	health := map[string]handler.Pinger{}

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	health["store"] = repo

	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	codec := security.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)

	deps := api.Dependencies{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthService:    service.NewAuthService(repo, hasher, codec, logger.Component("auth")),
		UserService:    service.NewUserService(repo, hasher, logger.Component("users")),
		Codec:          codec,
		Health:         health,
	}

	if cfg.RateLimit.Enabled {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, rate limiting disabled")
		} else {
			defer client.Close()
			limiter := redisdb.NewRateLimiter(client)
			deps.Limiter = limiter
			health["redis"] = limiter
		}
	}

	if cfg.Influx.Enabled() {
		store, err := influx.Connect(ctx, influx.Config{
			URL:   cfg.Influx.URL,
			Token: cfg.Influx.Token,
			Org:   cfg.Influx.Org,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		telemetry := service.NewTelemetryService(store, logger.Component("telemetry"))
		dispatcher := queue.NewDispatcher(cfg.Influx.Workers, telemetry, logger.Component("queue"))
		dispatcher.Start(context.WithoutCancel(ctx))
		defer dispatcher.Stop()

		deps.Telemetry = telemetry
		deps.Queue = dispatcher
		health["influxdb"] = store
	}

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		repo := mongodb.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			mongodb.Disconnect(client, 0)
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
		return repo, func() { mongodb.Disconnect(client, 0) }, nil
	default:
		db, err := sqlitedb.Open(ctx, sqlitedb.Config{Path: cfg.SQLite.Path})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("opened sqlite store")
		return sqlitedb.NewUserRepository(db), func() { _ = db.Close() }, nil
	}
}
