package sqlite

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	"telegram_booking_bot/internal/storage/models"
	"telegram_booking_bot/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, err := New(":memory:")
	require.NoError(t, err, "failed to create test storage")
	t.Cleanup(func() { storage.Close() })

	return storage
}

func pendingAppointment(masterID int64, date, slotTime string) *models.Appointment {
	return &models.Appointment{
		UserID:     12345,
		UserName:   "Алишер",
		UserPhone:  "+998901234567",
		MasterID:   masterID,
		MasterName: "Aziz",
		Date:       date,
		Time:       slotTime,
		Status:     models.StatusPending,
	}
}

func TestSlotReservation_Scenarios(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	// Сценарий A
	id, err := storage.CreateAppointment(ctx, pendingAppointment(1, "2024-05-01", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	taken, err := storage.IsSlotTaken(ctx, 1, "2024-05-01", "10:00")
	require.NoError(t, err)
	assert.True(t, taken)

	// Сценарий B: другой мастер
	taken, err = storage.IsSlotTaken(ctx, 2, "2024-05-01", "10:00")
	require.NoError(t, err)
	assert.False(t, taken)

	// Сценарий C
	id, err = storage.CreateAppointment(ctx, pendingAppointment(1, "2024-05-01", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	for slotTime, want := range map[string]bool{"10:00": true, "11:00": true, "12:00": false} {
		taken, err := storage.IsSlotTaken(ctx, 1, "2024-05-01", slotTime)
		require.NoError(t, err)
		assert.Equal(t, want, taken, "slot %s", slotTime)
	}
}

func TestIsSlotTaken_StatusFilter(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{name: "pending blocks", status: models.StatusPending, want: true},
		{name: "confirmed blocks", status: models.StatusConfirmed, want: true},
		{name: "cancelled does not block", status: models.StatusCancelled, want: false},
		{name: "unknown status does not block", status: "archived", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := setupTestStorage(t)
			ctx := context.Background()

			appt := pendingAppointment(3, "2024-06-10", "15:30")
			appt.Status = tt.status
			_, err := storage.CreateAppointment(ctx, appt)
			require.NoError(t, err)

			taken, err := storage.IsSlotTaken(ctx, 3, "2024-06-10", "15:30")
			require.NoError(t, err)
			assert.Equal(t, tt.want, taken)
		})
	}
}

func TestIsSlotTaken_ExactMatchOnly(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	_, err := storage.CreateAppointment(ctx, pendingAppointment(1, "2024-05-01", "10:00"))
	require.NoError(t, err)

	// Формат не нормализуется: "10:00 " и "01.05.2024" считаются другими слотами
	cases := []struct {
		masterID int64
		date     string
		time     string
	}{
		{1, "2024-05-01", "10:00 "},
		{1, "01.05.2024", "10:00"},
		{0, "", ""},
		{-1, "2024-05-01", "10:00"},
	}
	for _, c := range cases {
		taken, err := storage.IsSlotTaken(ctx, c.masterID, c.date, c.time)
		require.NoError(t, err)
		assert.False(t, taken, "%+v", c)
	}
}

func TestCreateAppointment_IDsStrictlyIncrease(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		id, err := storage.CreateAppointment(ctx, pendingAppointment(int64(i+1), "2024-05-01", "09:00"))
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestCreateAppointment_RoundTripWithDefaults(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	full := &models.Appointment{
		UserID:       777,
		UserName:     "Javohir",
		UserPhone:    "+998 90 000 00 00",
		MasterID:     2,
		MasterName:   "Javohir",
		Date:         "2024-05-02",
		Time:         "12:30",
		DurationMin:  75,
		TotalPrice:   90000,
		ServicesJSON: `[{"name":"Стрижка + Борода","price":90000,"duration":75}]`,
		Comment:      "без опозданий",
		Status:       models.StatusConfirmed,
	}
	id, err := storage.CreateAppointment(ctx, full)
	require.NoError(t, err)
	assert.Equal(t, id, full.ID)

	got, err := storage.GetAppointmentByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero(), "created_at must be set by storage")
	got.CreatedAt = full.CreatedAt
	assert.Equal(t, full, got)

	minimal := &models.Appointment{UserID: 1, MasterID: 1, Date: "2024-05-03", Time: "10:00"}
	id, err = storage.CreateAppointment(ctx, minimal)
	require.NoError(t, err)

	got, err = storage.GetAppointmentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "", got.UserName)
	assert.Equal(t, "", got.UserPhone)
	assert.Equal(t, "", got.MasterName)
	assert.Equal(t, "", got.Comment)
	assert.Equal(t, 0, got.DurationMin)
	assert.Equal(t, 0, got.TotalPrice)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, models.EmptyServicesJSON, got.ServicesJSON)
}

func TestGetAppointmentByID_NotFound(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.GetAppointmentByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAppointmentNotFound))
}

func TestInitSchema_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.sqlite")
	ctx := context.Background()

	storage, err := New(path)
	require.NoError(t, err)

	_, err = storage.CreateAppointment(ctx, pendingAppointment(1, "2024-05-01", "10:00"))
	require.NoError(t, err)

	require.NoError(t, storage.InitSchema(ctx))
	require.NoError(t, storage.Close())

	// Повторный запуск процесса поверх существующего файла
	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	taken, err := reopened.IsSlotTaken(ctx, 1, "2024-05-01", "10:00")
	require.NoError(t, err)
	assert.True(t, taken)

	id, err := reopened.CreateAppointment(ctx, pendingAppointment(1, "2024-05-01", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestGetUserAppointments_NewestFirst(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	for _, slotTime := range []string{"10:00", "11:00", "12:00"} {
		_, err := storage.CreateAppointment(ctx, pendingAppointment(1, "2024-05-01", slotTime))
		require.NoError(t, err)
	}
	other := pendingAppointment(1, "2024-05-01", "13:00")
	other.UserID = 999
	_, err := storage.CreateAppointment(ctx, other)
	require.NoError(t, err)

	appts, err := storage.GetUserAppointments(ctx, 12345, 2)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "12:00", appts[0].Time)
	assert.Equal(t, "11:00", appts[1].Time)
}

func TestCountAppointmentsByStatus(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	for i, status := range []string{models.StatusPending, models.StatusPending, models.StatusCancelled} {
		appt := pendingAppointment(int64(i+1), "2024-05-01", "10:00")
		appt.Status = status
		_, err := storage.CreateAppointment(ctx, appt)
		require.NoError(t, err)
	}

	counts, err := storage.CountAppointmentsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.StatusPending: 2, models.StatusCancelled: 1}, counts)
}

// Проверка и вставка не атомарны: параллельные заявки на один слот могут
// пройти проверку обе. Тест фиксирует только то, что каждая вставка успешна
// и получает свой ID.
func TestCreateAppointment_ConcurrentInserts(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	const workers = 8
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := storage.CreateAppointment(ctx, pendingAppointment(5, "2024-05-05", "10:00"))
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestClosedStorage_PropagatesError(t *testing.T) {
	storage, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	_, err = storage.IsSlotTaken(context.Background(), 1, "2024-05-01", "10:00")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDatabase))

	_, err = storage.CreateAppointment(context.Background(), pendingAppointment(1, "2024-05-01", "10:00"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDatabase))
}
