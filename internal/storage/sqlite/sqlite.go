package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"telegram_booking_bot/internal/storage/models"
	"telegram_booking_bot/pkg/errors"
	"telegram_booking_bot/pkg/metrics"

	_ "modernc.org/sqlite"
)

const appointmentColumns = `id, user_id, user_name, user_phone, master_id, master_name, date, time,
	duration_min, total_price, services_json, comment, status, created_at`

// activeStatusPlaceholders дает "?, ?" по числу models.ActiveStatuses
var activeStatusPlaceholders = strings.TrimSuffix(strings.Repeat("?, ", len(models.ActiveStatuses)), ", ")

// SQLiteStorage реализует интерфейс Storage для SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New создает новое подключение к SQLite базе данных и применяет схему
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite поддерживает только одно write-подключение, а :memory: живет в пределах соединения
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{db: db}

	if err := storage.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return storage, nil
}

// InitSchema создает таблицу записей и индексы, если их еще нет
func (s *SQLiteStorage) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL DEFAULT 0,
			user_name TEXT NOT NULL DEFAULT '',
			user_phone TEXT NOT NULL DEFAULT '',
			master_id INTEGER NOT NULL DEFAULT 0,
			master_name TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			duration_min INTEGER NOT NULL DEFAULT 0,
			total_price INTEGER NOT NULL DEFAULT 0,
			services_json TEXT NOT NULL DEFAULT '[]',
			comment TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_user ON appointments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_slot ON appointments(master_id, date, time)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

// Close закрывает подключение к базе данных
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// IsSlotTaken проверяет, есть ли у мастера активная запись на дату и время.
// Значения сравниваются как есть, без нормализации.
func (s *SQLiteStorage) IsSlotTaken(ctx context.Context, masterID int64, date, slotTime string) (bool, error) {
	var exists int
	query := `SELECT EXISTS(
				SELECT 1 FROM appointments
				WHERE master_id = ? AND date = ? AND time = ? AND status IN (` + activeStatusPlaceholders + `)
			  )`

	args := []interface{}{masterID, date, slotTime}
	for _, status := range models.ActiveStatuses {
		args = append(args, status)
	}

	err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists)
	if err != nil {
		metrics.RecordDatabaseOperation("is_slot_taken", "error")
		return false, errors.ErrDatabase.WithError(fmt.Errorf("failed to check slot: %w", err))
	}

	metrics.RecordDatabaseOperation("is_slot_taken", "success")
	return exists == 1, nil
}

// CreateAppointment сохраняет запись и возвращает присвоенный ID.
// Пустые статус и список услуг заменяются на "pending" и "[]".
func (s *SQLiteStorage) CreateAppointment(ctx context.Context, appt *models.Appointment) (int64, error) {
	if appt.Status == "" {
		appt.Status = models.StatusPending
	}
	if appt.ServicesJSON == "" {
		appt.ServicesJSON = models.EmptyServicesJSON
	}

	query := `INSERT INTO appointments (
				user_id, user_name, user_phone,
				master_id, master_name,
				date, time,
				duration_min, total_price,
				services_json, comment, status
			  ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		appt.UserID, appt.UserName, appt.UserPhone,
		appt.MasterID, appt.MasterName,
		appt.Date, appt.Time,
		appt.DurationMin, appt.TotalPrice,
		appt.ServicesJSON, appt.Comment, appt.Status,
	)
	if err != nil {
		metrics.RecordDatabaseOperation("create_appointment", "error")
		return 0, errors.ErrDatabase.WithError(fmt.Errorf("failed to create appointment: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		metrics.RecordDatabaseOperation("create_appointment", "error")
		return 0, errors.ErrDatabase.WithError(fmt.Errorf("failed to get appointment ID: %w", err))
	}

	metrics.RecordDatabaseOperation("create_appointment", "success")
	appt.ID = id
	return id, nil
}

// GetAppointmentByID получает запись по ID
func (s *SQLiteStorage) GetAppointmentByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`

	appt, err := scanAppointment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAppointmentNotFound.WithContext(map[string]interface{}{"id": id})
		}
		return nil, errors.ErrDatabase.WithError(fmt.Errorf("failed to get appointment: %w", err))
	}

	return appt, nil
}

// GetUserAppointments получает последние записи пользователя, новые первыми
func (s *SQLiteStorage) GetUserAppointments(ctx context.Context, userID int64, limit int) ([]*models.Appointment, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments
			  WHERE user_id = ?
			  ORDER BY id DESC
			  LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.ErrDatabase.WithError(fmt.Errorf("failed to get user appointments: %w", err))
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, errors.ErrDatabase.WithError(fmt.Errorf("failed to scan appointment: %w", err))
		}
		appts = append(appts, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabase.WithError(fmt.Errorf("failed to iterate appointments: %w", err))
	}

	return appts, nil
}

// CountAppointmentsByStatus считает записи по статусам
func (s *SQLiteStorage) CountAppointmentsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, errors.ErrDatabase.WithError(fmt.Errorf("failed to count appointments: %w", err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.ErrDatabase.WithError(fmt.Errorf("failed to scan status count: %w", err))
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	appt := &models.Appointment{}
	var createdAt sql.NullTime

	err := row.Scan(
		&appt.ID, &appt.UserID, &appt.UserName, &appt.UserPhone,
		&appt.MasterID, &appt.MasterName, &appt.Date, &appt.Time,
		&appt.DurationMin, &appt.TotalPrice, &appt.ServicesJSON, &appt.Comment,
		&appt.Status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		appt.CreatedAt = createdAt.Time
	}

	return appt, nil
}
