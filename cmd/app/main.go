package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-tracker-bot/internal/chat"
	"review-tracker-bot/internal/codehost"
	"review-tracker-bot/internal/config"
	"review-tracker-bot/internal/database"
	"review-tracker-bot/internal/domain"
	"review-tracker-bot/internal/handler"
	"review-tracker-bot/internal/repository"
	"review-tracker-bot/internal/reviewlink"
	"review-tracker-bot/internal/scheduler"
	"review-tracker-bot/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	// Логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Конфиг
	cfg, err := config.LoadConfig()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warnf(".env not found: %v", err)
		} else {
			logger.Fatalf("Invalid configuration: %v", err)
		}
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	hour, minute, _ := config.ParseReminderTime(cfg.ReminderTime)
	loc, _ := cfg.Location()

	// Хранилище коллекций
	store, closeStore := openStore(cfg, logger)
	defer closeStore()

	ctx := context.Background()

	// Репозитории
	reviewRepo := repository.NewReviewRepository(store, logger)
	if err := reviewRepo.Load(ctx); err != nil {
		logger.Fatalf("Failed to load tracked reviews: %v", err)
	}
	statsRepo := repository.NewStatsRepository(store, logger)
	if err := statsRepo.Load(ctx, time.Now()); err != nil {
		logger.Fatalf("Failed to load user stats: %v", err)
	}

	// Внешние сервисы
	slackClient := chat.NewSlackClient(cfg.SlackBotToken, logger)
	gitlabClient, err := codehost.NewGitLabClient(cfg.CodeHostToken, cfg.CodeHost, cfg.CodeHostURL, logger)
	if err != nil {
		logger.Fatalf("Code host client failed: %v", err)
	}

	// Use Cases
	statsUC := usecase.NewStatsUseCase(statsRepo, logger, time.Now)
	trackingUC := usecase.NewTrackingUseCase(
		reviewRepo, statsUC, slackClient, slackClient, gitlabClient,
		reviewlink.NewParser(cfg.CodeHost),
		usecase.TrackingOptions{
			BotUserID:               cfg.BotUserID,
			CommentRequiresReviewer: cfg.CommentRequiresReviewer,
			MonitorsChannel:         cfg.MonitorsChannel,
			IsDraftOnly:             cfg.IsDraftOnly,
		},
		logger, time.Now,
	)
	reminderUC := usecase.NewReminderUseCase(
		reviewRepo, slackClient, gitlabClient,
		usecase.ReminderOptions{
			Location:   loc,
			BatchSize:  cfg.StaleBatchSize,
			BatchDelay: cfg.StaleBatchDelay,
		},
		logger, time.Now,
	)

	// Планировщик напоминаний
	sched, err := scheduler.NewScheduler(reminderUC, hour, minute, loc, logger)
	if err != nil {
		logger.Fatalf("Scheduler setup failed: %v", err)
	}
	sched.Start()

	// Echo + Handlers
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(handler.RequestIDMiddleware())
	e.Use(handler.LoggingMiddleware(logger))

	apiHandler := handler.NewAPIHandler(trackingUC, reviewRepo, statsUC, cfg.SlackSigningSecret, logger)
	handler.RegisterHandlers(e, apiHandler)

	// Запуск сервера
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":             cfg.ServerPort,
		"storage":          cfg.StorageDriver,
		"target_channels":  cfg.TargetChannels,
		"reminder_time":    cfg.ReminderTime,
		"reminder_tz":      loc.String(),
		"tracked_reviews":  len(reviewRepo.Snapshot()),
		"code_host":        cfg.CodeHost,
		"signing_verified": cfg.SlackSigningSecret != "",
	}).Info("Review bot started")

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
	if err := apiHandler.Wait(shutdownCtx); err != nil {
		logger.Warnf("In-flight events not finished: %v", err)
	}
	sched.Stop(shutdownCtx)

	logger.Info("Server exited")
}

// openStore выбирает хранилище коллекций по STORAGE_DRIVER.
func openStore(cfg config.Config, logger *logrus.Logger) (domain.CollectionStore, func()) {
	switch cfg.StorageDriver {
	case "postgres":
		db, err := database.NewPostgresDB(database.DSN(cfg))
		if err != nil {
			logger.Fatalf("Database connection failed: %v", err)
		}
		logger.Info("Database connected")
		return database.NewPostgresStore(db), func() { _ = db.Close() }
	case "memory":
		logger.Warn("Using in-memory storage, state is lost on restart")
		return database.NewMemoryStore(), func() {}
	default:
		store, err := database.NewFileStore(cfg.DataDir)
		if err != nil {
			logger.Fatalf("File storage failed: %v", err)
		}
		logger.WithField("dir", cfg.DataDir).Info("Using file storage")
		return store, func() {}
	}
}
