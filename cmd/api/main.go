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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"rentchat/internal/adapter/api"
	"rentchat/internal/adapter/api/handler"
	apimiddleware "rentchat/internal/adapter/api/middleware"
	"rentchat/internal/adapter/api/router"
	"rentchat/internal/adapter/repository"
	"rentchat/internal/infrastructure/auth"
	"rentchat/internal/infrastructure/metrics"
	"rentchat/internal/infrastructure/ratelimit"
	"rentchat/internal/infrastructure/websocket"
	"rentchat/internal/usecase"
	"rentchat/pkg/config"
	"rentchat/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rentchat",
		Short:         "Rental marketplace chat API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP and websocket server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the SQL schema and exit",
			RunE:  runMigrate,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.Environment)
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "mysql" {
		logger.Info("DB_DRIVER %s has no schema to migrate", cfg.DBDriver)
		return nil
	}

	gdb, err := repository.OpenGorm(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}
	if err := repository.MigrateGorm(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Schema migrated on %s", cfg.DBDriver)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newFirebaseApp(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := openBackend(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer store.close()

	verifier, issuer, err := newAuthProvider(ctx, cfg, app)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewRateLimiter(ratelimit.Limit{
		Rate:  rate.Limit(cfg.RateLimitRPS),
		Burst: cfg.RateLimitBurst,
	})
	limiter.StartCleanupRoutine(ctx, 5*time.Minute)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	memberUseCase := usecase.NewMemberUseCase(store.members, store.transactor, auth.NewBcryptHasher(bcrypt.DefaultCost), issuer)
	rentalUseCase := usecase.NewRentalUseCase(store.rentals, store.members, store.transactor)
	chatRoomUseCase := usecase.NewChatRoomUseCase(store.rooms, store.chats, store.members, store.rentals, store.transactor, wsManager, limiter)

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(metrics.EchoMiddleware())
	e.Use(apimiddleware.RateLimit(limiter))

	router.Setup(e, handler.Handlers{
		Health:    handler.NewHealthHandler(cfg.DBDriver, store.ping),
		Member:    handler.NewMemberHandler(memberUseCase),
		Rental:    handler.NewRentalHandler(rentalUseCase),
		ChatRoom:  handler.NewChatRoomHandler(chatRoomUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, authMiddleware, memberUseCase, cfg.CORSAllowedOrigins),
	}, authMiddleware)

	go func() {
		logger.Info("Starting server on port %s (db=%s, auth=%s)", cfg.ServerPort, cfg.DBDriver, cfg.AuthProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server exited properly")
	return nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.L().Info()
			if v.Error != nil {
				event = logger.L().Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
