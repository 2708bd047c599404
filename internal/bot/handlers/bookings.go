package handlers

import (
	"context"

	"telegram_booking_bot/internal/bot/messages"
	botservice "telegram_booking_bot/internal/bot/service"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// BookingsHandler показывает пользователю его последние записи (/mybookings)
type BookingsHandler struct {
	service *botservice.Service
}

// NewBookingsHandler создает обработчик /mybookings
func NewBookingsHandler(service *botservice.Service) *BookingsHandler {
	return &BookingsHandler{service: service}
}

// Handle отправляет список записей
func (h *BookingsHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) error {
	if update.Message == nil {
		return nil
	}

	chatID := update.Message.Chat.ID
	appts, err := h.service.UserAppointments(ctx, senderID(update.Message))
	if err != nil {
		h.service.SendError(ctx, chatID, messages.HistoryFailed)
		return err
	}

	return h.service.SendSimpleMessage(ctx, chatID, messages.BookingHistory(appts))
}
