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

	"github.com/jominki354/hotstinder/config"
	"github.com/jominki354/hotstinder/db"
	"github.com/jominki354/hotstinder/handlers"
	"github.com/jominki354/hotstinder/lobby"
	"github.com/jominki354/hotstinder/repositories"
	api "github.com/jominki354/hotstinder/routes"
	"github.com/jominki354/hotstinder/services"
	"github.com/jominki354/hotstinder/storage"
)

const staleMatchSweepInterval = 1 * time.Minute

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Хранилище реплеев (Cloudflare R2) опционально: без него загрузка
	// реплеев отключена, остальная система работает как обычно.
	var replayUploader storage.FileUploader
	if cfg.ReplayStorageConfigured() {
		replayUploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("replay storage is not configured, replay uploads disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := lobby.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	txManager := repositories.NewSQLTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	playerRepo := repositories.NewPostgresMatchPlayerRepository(dbConn)
	statRepo := repositories.NewPostgresPlayerStatRepository(dbConn)
	changeRepo := repositories.NewPostgresMmrChangeRepository(dbConn)
	eventRepo := repositories.NewPostgresEventLogRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	registry := services.NewMatchRegistry()
	ratingTx := services.NewRatingTransaction(
		txManager,
		userRepo,
		statRepo,
		changeRepo,
		matchRepo,
		eventRepo,
		cfg.MMRKFactor,
	)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, statRepo, changeRepo)
	leaderboardService := services.NewLeaderboardService(userRepo)
	matchService := services.NewMatchService(
		txManager,
		matchRepo,
		playerRepo,
		userRepo,
		eventRepo,
		ratingTx,
		registry,
		wsHub,
		logger,
	)
	replayService := services.NewReplayService(matchRepo, replayUploader)
	logger.Info("Services initialized")

	// Супервизор зависших матчей: in_progress старше порога отменяется
	// с причиной "timeout".
	go func() {
		ticker := time.NewTicker(staleMatchSweepInterval)
		defer ticker.Stop()
		logger.Info("stale match supervisor started",
			slog.Duration("interval", staleMatchSweepInterval),
			slog.Duration("stale_after", cfg.MatchStaleAfter))

		for range ticker.C {
			cutoff := time.Now().Add(-cfg.MatchStaleAfter)
			staleIDs, err := matchRepo.ListStaleInProgress(context.Background(), nil, cutoff)
			if err != nil {
				logger.Error("supervisor: failed to list stale matches", slog.Any("error", err))
				continue
			}
			for _, id := range staleIDs {
				if err := matchService.Cancel(context.Background(), id, "timeout"); err != nil {
					logger.Error("supervisor: failed to cancel stale match",
						slog.Int("match_id", id), slog.Any("error", err))
					continue
				}
				logger.Info("supervisor: cancelled stale match", slog.Int("match_id", id))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	matchHandler := handlers.NewMatchHandler(matchService, replayService)
	userHandler := handlers.NewUserHandler(userService, leaderboardService)
	webSocketHandler := handlers.NewWebsocketHandler(wsHub, matchService, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		matchHandler,
		userHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
