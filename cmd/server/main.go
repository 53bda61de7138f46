package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"todo-service/internal/application/interfaces"
	"todo-service/internal/application/services"
	"todo-service/internal/config"
	"todo-service/internal/db"
	"todo-service/internal/delivery/handler"
	"todo-service/internal/domain/entities"
	"todo-service/internal/domain/repositories"
	"todo-service/internal/infrastructure"
	"todo-service/internal/infrastructure/db/sqlstore"
	"todo-service/internal/messaging"
)

func main() {
	if err := run(); err != nil {
		log.Fatal("❌ ", err)
	}
}

// run wires the service and blocks until a signal arrives or the server
// fails. Resources are closed on every return path.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, closeGateway, err := openGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect document store: %w", err)
	}
	defer closeGateway()

	redisClient, err := infrastructure.NewRedisClient(ctx, infrastructure.RedisOptions{
		URL:      cfg.RedisURL,
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	redisService := infrastructure.NewRedisService(redisClient)
	defer redisService.Close()

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.NatsURL != "" {
		nc, err := messaging.ConnectNats(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		publisher = nc
	}

	var idempotencyRepo repositories.IdempotencyRepository
	if cfg.IdempotencyDriver != "" {
		gormDB, err := sqlstore.Open(cfg.IdempotencyDriver, cfg.IdempotencyDSN)
		if err != nil {
			return fmt.Errorf("open idempotency store: %w", err)
		}
		idempotencyRepo = sqlstore.NewIdempotencyRepository(gormDB)
	}

	var provider interfaces.IdentityProvider
	if cfg.FederatedLoginEnabled() {
		provider = infrastructure.NewOAuthService(infrastructure.Auth0Config(
			cfg.Auth0Domain, cfg.Auth0ClientID, cfg.Auth0ClientSecret, cfg.Auth0CallbackURL,
		))
		log.Printf("federated login enabled via %s", cfg.Auth0Domain)
	}

	loginLimiter := infrastructure.NewRateLimiter(cfg.LoginRateWindow, cfg.LoginRateMax)
	go loginLimiter.RunCleanup(ctx, time.Minute)

	userService := services.NewUserService(gateway, publisher)
	taskService := services.NewTaskService(gateway, userService, idempotencyRepo, publisher)
	authService := services.NewAuthService(
		userService,
		infrastructure.NewJWTService(cfg.JWTSecret),
		redisService,
		provider,
		loginLimiter,
		services.AuthOptions{
			SessionTTL:      cfg.SessionTTL,
			LogoutReturnURL: cfg.LogoutReturnURL,
		},
	)

	h := handler.NewHandler(userService, taskService, authService, handler.Options{
		SessionTTL:        cfg.SessionTTL,
		CookieSecure:      cfg.CookieSecure,
		PostLoginRedirect: cfg.PostLoginRedirect,
	})
	e := handler.NewRouter(h, handler.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RequestLogging: true,
	})

	return serve(ctx, e, cfg.HTTPAddr)
}

// serve runs e on addr until ctx is done or the listener fails, then shuts
// the server down. A failed listener is returned as an error.
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server running on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var err error
	select {
	case <-ctx.Done():
		log.Println("shutting down")
	case err = <-serverErr:
		if err != nil {
			err = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("shutdown: %v", shutdownErr)
	}
	return err
}

// openGateway connects the configured document store and makes sure the
// indexes the services rely on exist.
func openGateway(ctx context.Context, cfg *config.Config) (db.Gateway, func(), error) {
	var (
		gateway interface {
			db.Gateway
			db.Indexer
		}
		closeFn = func() {}
	)

	switch cfg.DBDriver {
	case config.DriverMemory:
		log.Println("using in-memory document store")
		gateway = db.NewMemoryGateway()
	default:
		mongoGateway, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			return nil, nil, err
		}
		gateway = mongoGateway
		closeFn = func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoGateway.Close(closeCtx); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}
	}

	if err := gateway.EnsureIndex(ctx, entities.UsersCollection, "email", true); err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := gateway.EnsureIndex(ctx, entities.TasksCollection, "user_id", false); err != nil {
		closeFn()
		return nil, nil, err
	}
	return gateway, closeFn, nil
}
