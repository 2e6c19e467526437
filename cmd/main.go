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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/config"
	"github.com/kipr/colosseum-sub001/db"
	"github.com/kipr/colosseum-sub001/handlers"
	"github.com/kipr/colosseum-sub001/repositories"
	api "github.com/kipr/colosseum-sub001/routes"
	"github.com/kipr/colosseum-sub001/services"
	"github.com/kipr/colosseum-sub001/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	uploader := storage.NewDisabledUploader()
	if cfg.R2Configured() {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("object storage not configured, logo uploads disabled")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository()
	eventRepo := repositories.NewPostgresEventRepository()
	teamRepo := repositories.NewPostgresTeamRepository()
	seedingRepo := repositories.NewPostgresSeedingRepository()
	bracketRepo := repositories.NewPostgresBracketRepository()
	gameRepo := repositories.NewPostgresGameRepository()
	queueRepo := repositories.NewPostgresQueueRepository()

	jwtSecret := []byte(cfg.JWTSecretKey)

	authService := services.NewAuthService(dbConn, userRepo, jwtSecret)
	eventService := services.NewEventService(dbConn, eventRepo, teamRepo, bracketRepo)
	teamService := services.NewTeamService(dbConn, teamRepo, uploader, logger)
	rankingService := services.NewRankingService(dbConn, eventRepo, teamRepo, seedingRepo, wsHub, logger)
	bracketService := services.NewBracketService(dbConn, eventRepo, teamRepo, seedingRepo, bracketRepo, gameRepo, queueRepo, wsHub, logger)
	gameService := services.NewGameService(dbConn, bracketRepo, gameRepo, wsHub, logger)
	queueService := services.NewQueueService(dbConn, eventRepo, teamRepo, seedingRepo, bracketRepo, gameRepo, queueRepo, wsHub, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService)
	teamHandler := handlers.NewTeamHandler(teamService)
	rankingHandler := handlers.NewRankingHandler(rankingService)
	bracketHandler := handlers.NewBracketHandler(bracketService)
	gameHandler := handlers.NewGameHandler(gameService)
	queueHandler := handlers.NewQueueHandler(queueService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, eventService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		eventHandler,
		teamHandler,
		rankingHandler,
		bracketHandler,
		gameHandler,
		queueHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
