package models

import "time"

// Статусы записи
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// ActiveStatuses перечисляет статусы, которые занимают слот мастера
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// EmptyServicesJSON используется, когда список услуг не передан
const EmptyServicesJSON = "[]"

// Appointment представляет запись клиента к мастеру
type Appointment struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	UserName     string    `json:"user_name" db:"user_name"`
	UserPhone    string    `json:"user_phone" db:"user_phone"`
	MasterID     int64     `json:"master_id" db:"master_id"`
	MasterName   string    `json:"master_name" db:"master_name"`
	Date         string    `json:"date" db:"date"`
	Time         string    `json:"time" db:"time"`
	DurationMin  int       `json:"duration_min" db:"duration_min"`
	TotalPrice   int       `json:"total_price" db:"total_price"`
	ServicesJSON string    `json:"services_json" db:"services_json"`
	Comment      string    `json:"comment" db:"comment"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ServiceItem представляет услугу из заявки
type ServiceItem struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Duration int    `json:"duration"`
}

// GetFormattedSlot возвращает дату и время записи
func (a *Appointment) GetFormattedSlot() string {
	return a.Date + " " + a.Time
}
