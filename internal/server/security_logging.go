package server

import (
	"net/http"
	"time"

	"telegram_booking_bot/internal/middleware"
	"telegram_booking_bot/pkg/logger"
	"telegram_booking_bot/pkg/metrics"

	tgmodels "github.com/go-telegram/bot/models"
)

// SecurityLogger логирует события безопасности
type SecurityLogger struct {
	logger *logger.Logger
}

// NewSecurityLogger создает новый логгер безопасности
func NewSecurityLogger(log *logger.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: log.WithFields(logger.String("component", "security")),
	}
}

// LogFailedAuth логирует неудачную попытку аутентификации
func (sl *SecurityLogger) LogFailedAuth(r *http.Request, reason string) {
	metrics.RecordError("server", "auth_failed")
	sl.logger.Warn("Authentication failed",
		logger.String("reason", reason),
		logger.String("ip", middleware.RealIP(r)),
		logger.String("user_agent", r.UserAgent()),
		logger.String("path", r.URL.Path),
		logger.String("method", r.Method),
	)
}

// LogSuspiciousActivity логирует подозрительную активность
func (sl *SecurityLogger) LogSuspiciousActivity(r *http.Request, activity string, details map[string]interface{}) {
	fields := []logger.Field{
		logger.String("activity", activity),
		logger.String("ip", middleware.RealIP(r)),
		logger.String("user_agent", r.UserAgent()),
		logger.String("path", r.URL.Path),
		logger.String("method", r.Method),
	}
	for k, v := range details {
		fields = append(fields, logger.Any(k, v))
	}

	sl.logger.Warn("Suspicious activity detected", fields...)
}

// LogTelegramUpdate логирует обработанное обновление без текста сообщения
func (sl *SecurityLogger) LogTelegramUpdate(update *tgmodels.Update, processingTime time.Duration) {
	fields := []logger.Field{
		logger.Int64("update_id", update.ID),
		logger.Duration("processing_time", processingTime),
	}

	if update.Message != nil {
		fields = append(fields,
			logger.Int64("chat_id", update.Message.Chat.ID),
			logger.Bool("web_app_data", update.Message.WebAppData != nil),
		)
		if update.Message.From != nil {
			fields = append(fields, logger.Int64("user_id", update.Message.From.ID))
		}
	}

	sl.logger.Debug("Telegram update processed", fields...)
}

// securityAuditMiddleware фиксирует ответы с ошибками
func (s *Server) securityAuditMiddleware(securityLogger *SecurityLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &auditResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 400 {
				securityLogger.LogSuspiciousActivity(r, "http_error", map[string]interface{}{
					"status_code":    wrapped.statusCode,
					"duration_ms":    time.Since(start).Milliseconds(),
					"bytes_written":  wrapped.bytesWritten,
					"content_length": r.ContentLength,
				})
			}
		})
	}
}

// auditResponseWriter оборачивает ResponseWriter для сбора метрик
type auditResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

// WriteHeader перехватывает status code
func (arw *auditResponseWriter) WriteHeader(code int) {
	arw.statusCode = code
	arw.ResponseWriter.WriteHeader(code)
}

// Write перехватывает количество записанных байт
func (arw *auditResponseWriter) Write(data []byte) (int, error) {
	n, err := arw.ResponseWriter.Write(data)
	arw.bytesWritten += int64(n)
	return n, err
}
