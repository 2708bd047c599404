package storage

import (
	"context"

	"telegram_booking_bot/internal/storage/models"
)

// SlotChecker отвечает на вопрос, занят ли слот мастера
type SlotChecker interface {
	IsSlotTaken(ctx context.Context, masterID int64, date, time string) (bool, error)
}

// AppointmentRepository определяет интерфейс для работы с записями
type AppointmentRepository interface {
	SlotChecker
	CreateAppointment(ctx context.Context, appt *models.Appointment) (int64, error)
	GetAppointmentByID(ctx context.Context, id int64) (*models.Appointment, error)
	GetUserAppointments(ctx context.Context, userID int64, limit int) ([]*models.Appointment, error)
	CountAppointmentsByStatus(ctx context.Context) (map[string]int, error)
}

// Storage объединяет все репозитории в единый интерфейс
type Storage interface {
	AppointmentRepository
	Close() error
	Ping(ctx context.Context) error
}
