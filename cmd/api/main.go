package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contact-relay/internal/config"
	"github.com/noah-isme/gema-contact-relay/internal/database"
	"github.com/noah-isme/gema-contact-relay/internal/handler"
	"github.com/noah-isme/gema-contact-relay/internal/health"
	"github.com/noah-isme/gema-contact-relay/internal/mailer"
	"github.com/noah-isme/gema-contact-relay/internal/middleware"
	"github.com/noah-isme/gema-contact-relay/internal/router"
	"github.com/noah-isme/gema-contact-relay/internal/service"
	"github.com/noah-isme/gema-contact-relay/internal/validation"
)

const (
	requestBodyLimit = 64 * 1024
	shutdownTimeout  = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return 1
	}

	logger := newLogger(cfg)

	sender, err := mailer.New(cfg.Delivery, logger)
	var configErr *mailer.ConfigError
	switch {
	case errors.As(err, &configErr):
		logger.Warn().Strs("missing", configErr.Missing).Str("mode", configErr.Mode).Msg("email delivery is not configured; contact submissions will fail")
	case err != nil:
		logger.Error().Err(err).Msg("failed to create mail sender")
		return 1
	}

	deps := service.ContactDependencies{
		Sender:    sender,
		Validator: validation.NewValidator(),
	}
	if configErr != nil {
		deps.ConfigErr = configErr
	}

	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to redis")
			return 1
		}
		defer redisClient.Close()
		deps.Cache = redisClient
	}

	schema, err := validation.NewContactSchema()
	if err != nil {
		logger.Error().Err(err).Msg("failed to compile contact schema")
		return 1
	}

	contactService := service.NewContactService(deps, service.ContactConfig{
		SenderName:       cfg.Delivery.SenderName,
		SenderAddress:    cfg.Delivery.SenderAddress,
		RecipientName:    cfg.Delivery.RecipientName,
		RecipientAddress: cfg.Delivery.RecipientAddress,
		Acknowledge:      cfg.Delivery.Acknowledge,
		Timeout:          cfg.Delivery.Timeout,
		DedupeTTL:        cfg.DedupeTTL,
	}, logger)
	contactHandler := handler.NewContactHandler(contactService, schema, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ServerHeader:          cfg.AppName,
		BodyLimit:             requestBodyLimit,
		ErrorHandler:          handler.ErrorHandler,
		DisableStartupMessage: cfg.AppEnv == "production",
	})

	state := health.NewState()
	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		ContactHandler: contactHandler,
		HealthState:    state,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A fatal health verdict stops the server and exits non-zero so the process supervisor
	// starts a fresh instance.
	fatal := make(chan error, 1)
	monitor := health.NewMonitor(health.MonitorConfig{
		URL:       cfg.LocalURL() + "/api/test",
		Interval:  cfg.HealthInterval,
		Threshold: cfg.HealthThreshold,
	}, state, func(err error) {
		select {
		case fatal <- err:
		default:
		}
	}, logger)
	go monitor.Run(ctx)

	if cfg.PublicURL != "" {
		go health.NewPinger(cfg.PublicURL, cfg.SelfPingEvery, nil, logger).Run(ctx)
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.HTTPAddress()).
			Str("mail_mode", cfg.Delivery.Mode).
			Bool("acknowledge", cfg.Delivery.Acknowledge).
			Bool("dedupe", deps.Cache != nil).
			Msg("contact relay listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			listenErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-fatal:
		logger.Error().Err(err).Msg("health supervision failed, restarting")
		exitCode = 1
	case err := <-listenErr:
		logger.Error().Err(err).Msg("failed to start server")
		return 1
	}

	stop()
	waitForShutdown(app, logger)
	return exitCode
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("app", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
