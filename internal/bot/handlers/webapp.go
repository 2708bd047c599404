package handlers

import (
	"context"
	stderrors "errors"

	"telegram_booking_bot/internal/booking"
	"telegram_booking_bot/internal/bot/messages"
	botservice "telegram_booking_bot/internal/bot/service"
	"telegram_booking_bot/internal/middleware"
	"telegram_booking_bot/pkg/errors"
	"telegram_booking_bot/pkg/logger"
	"telegram_booking_bot/pkg/metrics"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// WebAppHandler принимает заявки, отправленные из WebApp
type WebAppHandler struct {
	service *botservice.Service
	limiter *middleware.SubmissionLimiter
	logger  *logger.Logger
}

// NewWebAppHandler создает обработчик данных WebApp
func NewWebAppHandler(service *botservice.Service, limiter *middleware.SubmissionLimiter, log *logger.Logger) *WebAppHandler {
	return &WebAppHandler{service: service, limiter: limiter, logger: log}
}

// Handle обрабатывает web_app_data
func (h *WebAppHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) error {
	msg := update.Message
	if msg == nil || msg.WebAppData == nil {
		return nil
	}

	chatID := msg.Chat.ID
	from := sender(msg)

	if h.limiter != nil && !h.limiter.AllowUser(from.ID) {
		metrics.RecordBookingRejected("rate_limited")
		h.service.SendError(ctx, chatID, messages.TooManyRequests)
		return nil
	}

	raw := msg.WebAppData.Data
	h.logger.Debug("Web app data received",
		logger.Int64("user_id", from.ID),
		logger.Int("size", len(raw)),
	)

	if err := h.service.SendSimpleMessage(ctx, chatID, messages.Received); err != nil {
		h.logger.Warn("Failed to acknowledge booking", logger.Int64("chat_id", chatID), logger.Error(err))
	}

	_, err := h.service.SubmitBooking(ctx, chatID, raw, from)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, errors.ErrIncompleteBooking):
		h.service.SendError(ctx, chatID, messages.Incomplete)
		return nil
	case stderrors.Is(err, errors.ErrSlotTaken):
		h.service.SendError(ctx, chatID, messages.SlotTaken)
		return nil
	default:
		metrics.RecordError("booking", errors.Code(err))
		h.service.SendError(ctx, chatID, messages.SaveFailed)
		return err
	}
}

// sender собирает данные автора сообщения
func sender(msg *models.Message) booking.Sender {
	if msg.From == nil {
		return booking.Sender{ID: msg.Chat.ID}
	}
	return booking.Sender{
		ID:        msg.From.ID,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Username:  msg.From.Username,
	}
}
