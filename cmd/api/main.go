package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"voyance-backend/internal/client"
	"voyance-backend/internal/config"
	"voyance-backend/internal/handler"
	"voyance-backend/internal/logger"
	"voyance-backend/internal/mailer"
	"voyance-backend/internal/middleware"
	"voyance-backend/internal/monitoring"
	"voyance-backend/internal/repository"
	"voyance-backend/internal/server"
	"voyance-backend/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.SentryDSN != "" {
		if err := monitoring.InitSentry(cfg.SentryDSN, cfg.Environment.Name); err != nil {
			log.Warn("sentry disabled", zap.Error(err))
		} else {
			defer monitoring.FlushSentry()
		}
	}
	monitoring.Init()

	db, err := client.InitPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)

	notifier, err := mailer.New(cfg.SMTP)
	if err != nil {
		log.Fatal("init mailer", zap.Error(err))
	}

	consultationRepo := repository.NewConsultationRepository(db)

	consultationService := service.NewConsultationService(
		consultationRepo,
		stripeClient,
		notifier,
		cfg.Consultation.PremiumThreshold,
		log,
	)

	auth := middleware.NewSessionAuth(cfg.SessionSecret)
	consultationHandler := handler.NewConsultationHandler(consultationService, stripeClient, log)
	adminHandler := handler.NewAdminHandler(consultationService, auth, cfg.AdminPassword)

	srv := server.NewServer(consultationHandler, adminHandler, auth, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}
