package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики для Telegram бота
var (
	// Общие метрики
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_requests_total",
			Help: "Общее количество обработанных обновлений",
		},
		[]string{"handler", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_bot_request_duration_seconds",
			Help:    "Время обработки обновлений в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	// Метрики записей
	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_appointments_created_total",
			Help: "Общее количество созданных записей",
		},
	)

	BookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_appointments_rejected_total",
			Help: "Отклоненные заявки по причине",
		},
		[]string{"reason"},
	)

	AppointmentsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "booking_bot_appointments",
			Help: "Количество записей по статусу",
		},
		[]string{"status"},
	)

	StartsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_start_suppressed_total",
			Help: "Повторные /start, подавленные анти-дублем",
		},
	)

	// Метрики уведомлений
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_notifications_sent_total",
			Help: "Общее количество отправленных уведомлений",
		},
		[]string{"type", "status"},
	)

	// Метрики базы данных
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_database_operations_total",
			Help: "Общее количество операций с базой данных",
		},
		[]string{"operation", "status"},
	)

	// Метрики производительности
	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_bot_memory_usage_bytes",
			Help: "Использование памяти в байтах",
		},
	)

	GoroutinesCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_bot_goroutines_count",
			Help: "Количество активных горутин",
		},
	)

	// Метрики ошибок
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_errors_total",
			Help: "Общее количество ошибок",
		},
		[]string{"component", "error_type"},
	)

	// Метрики HTTP сервера
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_bot_http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRequest записывает метрику обработки обновления
func RecordRequest(handler, status string) {
	RequestsTotal.WithLabelValues(handler, status).Inc()
}

// RecordBookingCreated записывает метрику созданной записи
func RecordBookingCreated() {
	BookingsCreated.Inc()
}

// RecordBookingRejected записывает метрику отклоненной заявки
func RecordBookingRejected(reason string) {
	BookingsRejected.WithLabelValues(reason).Inc()
}

// RecordStartSuppressed записывает подавленный повторный /start
func RecordStartSuppressed() {
	StartsSuppressed.Inc()
}

// RecordNotification записывает метрику отправки уведомления
func RecordNotification(notificationType, status string) {
	NotificationsSent.WithLabelValues(notificationType, status).Inc()
}

// RecordDatabaseOperation записывает метрику операции с БД
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// RecordError записывает метрику ошибки
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest записывает метрику HTTP запроса
func RecordHTTPRequest(method, endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// SetAppointments устанавливает количество записей для статуса
func SetAppointments(status string, count float64) {
	AppointmentsByStatus.WithLabelValues(status).Set(count)
}

// UpdateRuntimeStats обновляет метрики памяти и горутин
func UpdateRuntimeStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryUsage.Set(float64(m.Alloc))
	GoroutinesCount.Set(float64(runtime.NumGoroutine()))
}
