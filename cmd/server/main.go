package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"signmeup/internal/auth"
	"signmeup/internal/cache"
	"signmeup/internal/config"
	"signmeup/internal/db"
	"signmeup/internal/handler"
	"signmeup/internal/notify"
	"signmeup/internal/repository"
	"signmeup/internal/router"
	"signmeup/internal/service"
)

const shutdownTimeout = 15 * time.Second

// @title SignMeUp API
// @version 1.0
// @description Event signup API with JWT authentication, admin event management and email notifications.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.String("config", cfg.String()))

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("database init", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Warn("failed to drop tables", slog.String("error", err.Error()))
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Error("auto-migrate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger)
	if !cacheClient.Enabled() {
		logger.Warn("REDIS_ADDR not set, running without event cache and token revocation")
	} else if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("redis unreachable, continuing without it", slog.String("error", err.Error()))
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		logger.Warn("RESEND_API_KEY not set, emails will only be logged")
	}
	dispatcher := notify.NewDispatcher(mailer, logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	eventRepo := repository.NewEventRepository(gormDB)
	signupRepo := repository.NewSignupRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, logger)
	authService := service.NewAuthService(userRepo, auth.NewPasswordHasher(), jwtService, tokenStore, dispatcher, logger)
	eventService := service.NewEventService(eventRepo, signupRepo, cacheClient, dispatcher, cfg.NotifyOnEventUpdate, logger)
	signupService := service.NewSignupService(eventRepo, signupRepo, dispatcher, logger)

	gate := auth.NewGate(jwtService, tokenStore, userService, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		logger,
		gate,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewEventHandler(eventService),
		handler.NewSignupHandler(signupService),
	)

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server listening", slog.String("addr", addr), slog.String("swagger", "/swagger/index.html"))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.String("error", err.Error()))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("pending emails dropped", slog.String("error", err.Error()))
	}
	if err := cacheClient.Close(); err != nil {
		logger.Warn("redis close", slog.String("error", err.Error()))
	}
	if err := db.Close(gormDB); err != nil {
		logger.Warn("database close", slog.String("error", err.Error()))
	}
}
