package validation

import (
	stderrors "errors"
	"sync"

	"telegram_booking_bot/internal/booking"
	"telegram_booking_bot/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateBookingRequest проверяет обязательные поля заявки до обращения к хранилищу:
// мастер должен быть положительным числом, дата и время непустыми
func ValidateBookingRequest(req *booking.Request) error {
	if req == nil {
		return errors.ErrIncompleteBooking.WithContext("пустая заявка")
	}

	err := instance().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.ErrIncompleteBooking.WithError(err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}

	return errors.ErrIncompleteBooking.WithContext(map[string]interface{}{
		"fields":    fields,
		"master_id": req.MasterID,
		"date":      req.Date,
		"time":      req.Time,
	})
}

// ValidateChatID валидирует Telegram Chat ID
func ValidateChatID(chatID int64) error {
	if chatID == 0 {
		return errors.ErrInvalidChatID.WithContext("Chat ID не может быть равен нулю")
	}

	// В Telegram Chat ID могут быть отрицательными для групп,
	// поэтому принимаем любые ненулевые значения
	return nil
}
