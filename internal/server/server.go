package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"telegram_booking_bot/internal/config"
	"telegram_booking_bot/internal/middleware"
	"telegram_booking_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPath путь, на который Telegram присылает обновления
const WebhookPath = "/webhook"

// UpdateHandler обрабатывает обновления Telegram
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, bot *tgbot.Bot, update *tgmodels.Update)
}

// Server представляет HTTP сервер с middleware
type Server struct {
	httpServer     *http.Server
	config         *config.Config
	logger         *logger.Logger
	rateLimiter    *middleware.RateLimiter
	securityLogger *SecurityLogger
	healthChecker  *HealthChecker
	dispatcher     UpdateHandler
	telegramBot    *tgbot.Bot
}

// New создает новый HTTP сервер
func New(
	cfg *config.Config,
	log *logger.Logger,
	healthChecker *HealthChecker,
	rateLimiter *middleware.RateLimiter,
	dispatcher UpdateHandler,
	telegramBot *tgbot.Bot,
) *Server {
	server := &Server{
		config:         cfg,
		logger:         log,
		rateLimiter:    rateLimiter,
		securityLogger: NewSecurityLogger(log),
		healthChecker:  healthChecker,
		dispatcher:     dispatcher,
		telegramBot:    telegramBot,
	}

	server.httpServer = &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        server.setupRoutes(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return server
}

// Handler возвращает корневой обработчик со всеми middleware
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes настраивает маршруты с middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthChecker.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// В режиме polling webhook не публикуется
	if s.config.IsWebhook() {
		mux.Handle(WebhookPath, s.webhookAuthMiddleware(http.HandlerFunc(s.handleWebhook)))
	}

	return s.applyMiddleware(mux)
}

// applyMiddleware применяет middleware, последний добавленный выполняется первым
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	h := handler

	h = middleware.PrometheusMiddleware("/health", "/metrics", WebhookPath)(h)
	h = s.requestSizeMiddleware(h)
	if s.rateLimiter != nil {
		h = middleware.HTTPRateLimitMiddleware(s.rateLimiter)(h)
	}
	h = s.securityAuditMiddleware(s.securityLogger)(h)
	h = s.loggingMiddleware(h)
	h = s.securityHeadersMiddleware(h)

	return h
}

// handleWebhook обрабатывает Telegram webhook
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		s.securityLogger.LogSuspiciousActivity(r, "invalid_webhook_method", map[string]interface{}{
			"method": r.Method,
		})
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update tgmodels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("Failed to decode Telegram update", logger.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s.dispatcher.HandleUpdate(ctx, s.telegramBot, &update)

	s.securityLogger.LogTelegramUpdate(&update, time.Since(start))
	w.WriteHeader(http.StatusOK)
}

// Start запускает сервер и блокируется до отмены контекста
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		logger.String("addr", s.httpServer.Addr),
		logger.Bool("webhook", s.config.IsWebhook()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown корректно завершает работу сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Error during server shutdown", logger.Error(err))
		return err
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
