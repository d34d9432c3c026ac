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

	"github.com/isdelr/ender-catalog-be/internal/api"
	"github.com/isdelr/ender-catalog-be/internal/auth"
	"github.com/isdelr/ender-catalog-be/internal/config"
	"github.com/isdelr/ender-catalog-be/internal/database"
	"github.com/isdelr/ender-catalog-be/internal/events"
	"github.com/isdelr/ender-catalog-be/internal/logger"
	"github.com/isdelr/ender-catalog-be/internal/monitoring"
	"github.com/isdelr/ender-catalog-be/internal/services"
	"github.com/isdelr/ender-catalog-be/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML configuration file")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.IsDevelopment())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up stores
	userStore := store.NewUserStore(db)
	productStore := store.NewProductStore(db)
	activityStore := store.NewActivityStore(db)

	// Optional activity stream
	var publisher services.ActivityPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Publishing activity to Kafka")
	}

	// Set up services
	tokens := auth.NewTokenManager(auth.Options{
		Secret:       cfg.Auth.JWTSecret,
		TTL:          cfg.Auth.TokenTTL,
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.IsProduction(),
	})
	activityService := services.NewActivityService(activityStore, publisher)
	accountService := services.NewAccountService(userStore, tokens, activityService, services.AccountPolicy{
		BcryptCost:              cfg.Auth.BcryptCost,
		AllowRoleSelfAssignment: cfg.Auth.AllowRoleSelfAssignment,
	})
	productService := services.NewProductService(productStore, userStore, activityService)

	// Set up and run the activity retention sweeper
	sweeper, err := monitoring.NewRetentionSweeper(activityService, cfg.Activity.Retention, cfg.Activity.RetentionSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure retention sweeper")
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Accounts:    accountService,
		Products:    productService,
		Tokens:      tokens,
		Users:       userStore,
		CORSOrigins: cfg.CORSOrigins,
		Development: cfg.IsDevelopment(),
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
