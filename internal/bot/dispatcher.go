package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram_booking_bot/internal/bot/handlers"
	"telegram_booking_bot/internal/bot/service"
	"telegram_booking_bot/internal/middleware"
	"telegram_booking_bot/pkg/logger"
	"telegram_booking_bot/pkg/metrics"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// Handler обрабатывает одно обновление
type Handler interface {
	Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) error
}

// Dispatcher управляет обработкой входящих обновлений от Telegram
type Dispatcher struct {
	startHandler    Handler
	webAppHandler   Handler
	bookingsHandler Handler
	defaultHandler  Handler
	logger          *logger.Logger
}

// NewDispatcher создает новый диспетчер обновлений
func NewDispatcher(
	service *service.Service,
	guard *middleware.StartGuard,
	limiter *middleware.SubmissionLimiter,
	log *logger.Logger,
) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		startHandler:    handlers.NewStartHandler(service, guard),
		webAppHandler:   handlers.NewWebAppHandler(service, limiter, log),
		bookingsHandler: handlers.NewBookingsHandler(service),
		defaultHandler:  handlers.NewDefaultHandler(service),
		logger:          log,
	}
}

// HandleUpdate обрабатывает входящее обновление от Telegram
func (d *Dispatcher) HandleUpdate(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		d.logger.Debug("Skipping unsupported update type")
		return
	}

	name, handler := d.route(update.Message)
	log := d.logger.WithFields(
		logger.String("request_id", uuid.NewString()),
		logger.String("handler", name),
		logger.Int64("chat_id", update.Message.Chat.ID),
	)

	start := time.Now()
	err := d.safeHandle(ctx, bot, update, handler)
	metrics.RequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RecordRequest(name, "error")
		log.Error("Update handling failed", logger.Error(err))
		return
	}

	metrics.RecordRequest(name, "success")
	log.Debug("Update handled", logger.Duration("duration", time.Since(start)))
}

// route выбирает обработчик для сообщения
func (d *Dispatcher) route(msg *models.Message) (string, Handler) {
	if msg.WebAppData != nil {
		return "webapp", d.webAppHandler
	}

	switch command(msg.Text) {
	case "start", "startapp":
		return "start", d.startHandler
	case "mybookings":
		return "mybookings", d.bookingsHandler
	default:
		return "default", d.defaultHandler
	}
}

// safeHandle не дает панике в обработчике уронить polling
func (d *Dispatcher) safeHandle(ctx context.Context, bot *tgbot.Bot, update *models.Update, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordError("dispatcher", "panic")
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, bot, update)
}

// command извлекает имя команды: "/start@kings_bot payload" -> "start"
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	name := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
