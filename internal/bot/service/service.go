package service

import (
	"context"
	"fmt"

	"telegram_booking_bot/internal/booking"
	"telegram_booking_bot/internal/bot/keyboard"
	"telegram_booking_bot/internal/bot/messages"
	"telegram_booking_bot/internal/config"
	"telegram_booking_bot/internal/storage"
	"telegram_booking_bot/internal/storage/models"
	"telegram_booking_bot/internal/validation"
	"telegram_booking_bot/pkg/errors"
	"telegram_booking_bot/pkg/logger"
	"telegram_booking_bot/pkg/metrics"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// Messenger отправляет сообщения в Telegram. *bot.Bot удовлетворяет интерфейсу
type Messenger interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*tgmodels.Message, error)
}

// Service представляет основной сервис Telegram бота
type Service struct {
	messenger Messenger
	storage   storage.AppointmentRepository
	config    *config.Config
	logger    *logger.Logger
}

// NewService создает новый экземпляр сервиса бота
func NewService(
	messenger Messenger,
	storage storage.AppointmentRepository,
	config *config.Config,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		messenger: messenger,
		storage:   storage,
		config:    config,
		logger:    log,
	}
}

// SendMessage отправляет HTML сообщение пользователю
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup tgmodels.ReplyMarkup) error {
	if err := validation.ValidateChatID(chatID); err != nil {
		return err
	}

	params := &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   tgmodels.ParseModeHTML,
		ReplyMarkup: replyMarkup,
	}

	if _, err := s.messenger.SendMessage(ctx, params); err != nil {
		return errors.ErrTelegramAPI.WithError(err).WithContext(map[string]interface{}{"chat_id": chatID})
	}
	return nil
}

// SendSimpleMessage отправляет простое текстовое сообщение
func (s *Service) SendSimpleMessage(ctx context.Context, chatID int64, text string) error {
	return s.SendMessage(ctx, chatID, text, nil)
}

// SendError отправляет сообщение об ошибке пользователю
func (s *Service) SendError(ctx context.Context, chatID int64, message string) {
	if err := s.SendSimpleMessage(ctx, chatID, message); err != nil {
		s.logger.Error("Failed to send error message",
			logger.Int64("chat_id", chatID),
			logger.Error(err),
		)
	}
}

// SendWelcome отправляет приветствие с кнопкой WebApp
func (s *Service) SendWelcome(ctx context.Context, chatID int64) error {
	kb := keyboard.CreateWebAppKeyboard(s.config.Booking.WebAppURL, messages.ButtonOpenWebApp)
	return s.SendMessage(ctx, chatID, messages.Welcome(s.config.Booking.ShopName), kb)
}

// SubmitBooking обрабатывает данные из WebApp: нормализует, проверяет слот,
// сохраняет запись и рассылает уведомления
func (s *Service) SubmitBooking(ctx context.Context, chatID int64, raw string, from booking.Sender) (*models.Appointment, error) {
	req := booking.Normalize(booking.ParsePayload(raw), from)

	appt, err := s.ReserveSlot(ctx, &req)
	if err != nil {
		return nil, err
	}

	s.NotifyBooking(ctx, chatID, appt, &req, from)
	return appt, nil
}

// ReserveSlot проверяет заявку и занятость слота, затем создает запись.
// Проверка и вставка выполняются отдельными запросами без транзакции
func (s *Service) ReserveSlot(ctx context.Context, req *booking.Request) (*models.Appointment, error) {
	if err := validation.ValidateBookingRequest(req); err != nil {
		metrics.RecordBookingRejected("incomplete")
		s.logger.Info("Booking rejected: incomplete data", logger.Error(err))
		return nil, err
	}

	taken, err := s.storage.IsSlotTaken(ctx, req.MasterID, req.Date, req.Time)
	if err != nil {
		metrics.RecordBookingRejected("storage_error")
		return nil, err
	}
	if taken {
		metrics.RecordBookingRejected("slot_taken")
		s.logger.Info("Booking rejected: slot taken",
			logger.Int64("user_id", req.UserID),
			logger.Int64("master_id", req.MasterID),
			logger.String("slot", req.Date+" "+req.Time),
		)
		return nil, errors.ErrSlotTaken.WithContext(map[string]interface{}{
			"master_id": req.MasterID,
			"date":      req.Date,
			"time":      req.Time,
		})
	}

	appt := req.ToAppointment()
	if _, err := s.storage.CreateAppointment(ctx, appt); err != nil {
		metrics.RecordBookingRejected("storage_error")
		return nil, err
	}

	metrics.RecordBookingCreated()
	s.logger.Info("Appointment created",
		logger.Int64("appointment_id", appt.ID),
		logger.Int64("user_id", appt.UserID),
		logger.Int64("master_id", appt.MasterID),
		logger.String("slot", appt.GetFormattedSlot()),
	)

	return appt, nil
}

// NotifyBooking отправляет уведомления администратору и клиенту.
// Ошибки отправки не отменяют уже сохраненную запись
func (s *Service) NotifyBooking(ctx context.Context, chatID int64, appt *models.Appointment, req *booking.Request, from booking.Sender) {
	b := messages.Booking{
		Appointment:   appt,
		Services:      req.Services,
		TelegramLabel: from.Label(),
	}

	s.notify(ctx, "admin", s.config.Booking.AdminChatID, messages.AdminAlert(s.config.Booking.ShopName, b), appt.ID)
	s.notify(ctx, "client", chatID, messages.ClientConfirmation(b), appt.ID)
}

func (s *Service) notify(ctx context.Context, kind string, chatID int64, text string, apptID int64) {
	if err := s.SendSimpleMessage(ctx, chatID, text); err != nil {
		metrics.RecordNotification(kind, "error")
		s.logger.Error("Failed to send booking notification",
			logger.String("type", kind),
			logger.Int64("chat_id", chatID),
			logger.Int64("appointment_id", apptID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotification(kind, "success")
}

// UserAppointments возвращает последние записи пользователя
func (s *Service) UserAppointments(ctx context.Context, userID int64) ([]*models.Appointment, error) {
	limit := s.config.Booking.HistoryLimit
	appts, err := s.storage.GetUserAppointments(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for user %d: %w", userID, err)
	}
	return appts, nil
}
