package errors

import (
	stderrors "errors"
	"fmt"
)

// BotError представляет ошибку бота с кодом и контекстом
type BotError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Context interface{} `json:"context,omitempty"`
}

// Error реализует интерфейс error
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *BotError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, поэтому копии из WithContext/WithError
// совпадают с предопределенными значениями
func (e *BotError) Is(target error) bool {
	t, ok := target.(*BotError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithContext добавляет контекст к ошибке
func (e *BotError) WithContext(ctx interface{}) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Context: ctx,
	}
}

// WithError добавляет underlying ошибку
func (e *BotError) WithError(err error) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		Context: e.Context,
	}
}

// Предопределенные ошибки
var (
	// Ошибки записи
	ErrIncompleteBooking = &BotError{
		Code:    "INCOMPLETE_BOOKING",
		Message: "неполные данные записи",
	}

	ErrSlotTaken = &BotError{
		Code:    "SLOT_TAKEN",
		Message: "время у мастера уже занято",
	}

	ErrAppointmentNotFound = &BotError{
		Code:    "APPOINTMENT_NOT_FOUND",
		Message: "запись не найдена",
	}

	// Ошибки валидации
	ErrInvalidChatID = &BotError{
		Code:    "INVALID_CHAT_ID",
		Message: "некорректный chat ID",
	}

	// Системные ошибки
	ErrDatabase = &BotError{
		Code:    "DATABASE",
		Message: "ошибка базы данных",
	}

	ErrConfigurationInvalid = &BotError{
		Code:    "CONFIGURATION_INVALID",
		Message: "некорректная конфигурация",
	}

	ErrTelegramAPI = &BotError{
		Code:    "TELEGRAM_API",
		Message: "ошибка Telegram API",
	}
)

// IsBotError проверяет, является ли ошибка BotError
func IsBotError(err error) bool {
	_, ok := GetBotError(err)
	return ok
}

// GetBotError извлекает BotError из цепочки ошибок
func GetBotError(err error) (*BotError, bool) {
	var botErr *BotError
	if stderrors.As(err, &botErr) {
		return botErr, true
	}
	return nil, false
}

// Code возвращает код ошибки или пустую строку для обычных ошибок
func Code(err error) string {
	if botErr, ok := GetBotError(err); ok {
		return botErr.Code
	}
	return ""
}
