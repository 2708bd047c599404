package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram_booking_bot/internal/bot"
	"telegram_booking_bot/internal/bot/service"
	"telegram_booking_bot/internal/config"
	"telegram_booking_bot/internal/middleware"
	"telegram_booking_bot/internal/scheduler"
	"telegram_booking_bot/internal/server"
	"telegram_booking_bot/internal/storage/sqlite"
	"telegram_booking_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// version задается при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	log.Info("Starting booking bot",
		logger.String("version", version),
		logger.String("mode", cfg.Telegram.Mode),
	)

	storage, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to initialize storage", logger.String("path", cfg.Database.Path), logger.Error(err))
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("Error closing storage", logger.Error(err))
		}
	}()
	log.Info("Storage initialized", logger.String("path", cfg.Database.Path))

	// Диспетчер создается после бота, бот вызывает его через замыкание
	var dispatcher *bot.Dispatcher
	telegramBot, err := tgbot.New(cfg.Telegram.Token,
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *tgmodels.Update) {
			dispatcher.HandleUpdate(ctx, b, update)
		}),
	)
	if err != nil {
		log.Fatal("Failed to create Telegram bot", logger.Error(err))
	}

	startGuard := middleware.NewStartGuard(cfg.Booking.StartDedupTTL)
	submissionLimiter := middleware.NewSubmissionLimiter(cfg.Booking.SubmissionsPerMin, 30, log)
	httpLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, time.Minute, log)

	botService := service.NewService(telegramBot, storage, cfg, log)
	dispatcher = bot.NewDispatcher(botService, startGuard, submissionLimiter, log)

	maintenance := scheduler.New(cfg.Booking.MaintenanceSchedule, log)
	maintenance.Register("start_guard_prune", scheduler.CleanupJob("start_guard_prune", scheduler.CleanerFunc(startGuard.Prune), log))
	maintenance.Register("submission_limiter_cleanup", scheduler.CleanupJob("submission_limiter_cleanup", submissionLimiter, log))
	maintenance.Register("http_limiter_cleanup", scheduler.CleanupJob("http_limiter_cleanup", httpLimiter, log))
	maintenance.Register("appointment_gauges", scheduler.AppointmentGaugeJob(storage))
	maintenance.Register("runtime_stats", scheduler.RuntimeStatsJob())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	maintenance.RunNow()
	if err := maintenance.Start(ctx); err != nil {
		log.Fatal("Failed to start maintenance scheduler", logger.Error(err))
	}
	defer maintenance.Stop()

	if err := setupUpdates(ctx, telegramBot, cfg, log); err != nil {
		log.Fatal("Failed to configure Telegram updates", logger.Error(err))
	}

	healthChecker := server.NewHealthChecker(storage, version, cfg.Telegram.Mode, cfg.Database.ConnTimeout)
	srv := server.New(cfg, log, healthChecker, httpLimiter, dispatcher, telegramBot)

	if err := srv.Start(ctx); err != nil {
		log.Error("Server error", logger.Error(err))
		return
	}

	log.Info("Bot stopped gracefully")
}

// setupUpdates включает webhook или запускает long polling
func setupUpdates(ctx context.Context, b *tgbot.Bot, cfg *config.Config, log *logger.Logger) error {
	if cfg.IsWebhook() {
		params := &tgbot.SetWebhookParams{
			URL:         cfg.Telegram.WebhookURL,
			SecretToken: cfg.Telegram.WebhookSecret,
		}
		if _, err := b.SetWebhook(ctx, params); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		log.Info("Webhook configured", logger.String("url", cfg.Telegram.WebhookURL))
		return nil
	}

	// Старый webhook блокирует getUpdates, накопившиеся обновления отбрасываем
	if _, err := b.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	go b.Start(ctx)
	log.Info("Long polling started")
	return nil
}

func newLogger(cfg config.LogConfig) *logger.Logger {
	level := logger.ParseLevel(cfg.Level)
	if cfg.Format == "console" {
		return logger.NewConsole(level)
	}
	return logger.New(level)
}
