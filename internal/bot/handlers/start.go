package handlers

import (
	"context"

	botservice "telegram_booking_bot/internal/bot/service"
	"telegram_booking_bot/internal/middleware"
	"telegram_booking_bot/pkg/metrics"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// StartHandler обрабатывает команды /start и /startapp
type StartHandler struct {
	service *botservice.Service
	guard   *middleware.StartGuard
}

// NewStartHandler создает новый обработчик команды /start
func NewStartHandler(service *botservice.Service, guard *middleware.StartGuard) *StartHandler {
	return &StartHandler{service: service, guard: guard}
}

// Handle отправляет приветствие с кнопкой WebApp. Повторный /start в пределах
// окна анти-дубля молча игнорируется
func (h *StartHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) error {
	if update.Message == nil {
		return nil
	}

	if !h.guard.Allow(senderID(update.Message)) {
		metrics.RecordStartSuppressed()
		return nil
	}

	return h.service.SendWelcome(ctx, update.Message.Chat.ID)
}

// senderID возвращает ID автора сообщения, для каналов без From берется чат
func senderID(msg *models.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}
