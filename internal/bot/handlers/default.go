package handlers

import (
	"context"

	"telegram_booking_bot/internal/bot/messages"
	botservice "telegram_booking_bot/internal/bot/service"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// DefaultHandler обрабатывает неопознанные сообщения
type DefaultHandler struct {
	service *botservice.Service
}

// NewDefaultHandler создает новый обработчик по умолчанию
func NewDefaultHandler(service *botservice.Service) *DefaultHandler {
	return &DefaultHandler{service: service}
}

// Handle обрабатывает все остальные типы сообщений
func (h *DefaultHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) error {
	if update.Message == nil {
		return nil
	}

	// Напоминаем, как пользоваться ботом
	return h.service.SendSimpleMessage(ctx, update.Message.Chat.ID, messages.PressStart)
}
