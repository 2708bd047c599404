package scheduler

import "context"

// Cleaner освобождает устаревшие записи в памяти и возвращает их количество
type Cleaner interface {
	Cleanup() int
}

// CleanerFunc адаптирует функцию к интерфейсу Cleaner
type CleanerFunc func() int

// Cleanup вызывает f()
func (f CleanerFunc) Cleanup() int { return f() }

// StatusCounter отдает количество записей по статусам
type StatusCounter interface {
	CountAppointmentsByStatus(ctx context.Context) (map[string]int, error)
}
