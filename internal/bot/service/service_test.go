package service

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"telegram_booking_bot/internal/booking"
	"telegram_booking_bot/internal/config"
	"telegram_booking_bot/internal/storage"
	"telegram_booking_bot/internal/storage/models"
	"telegram_booking_bot/internal/storage/sqlite"
	"telegram_booking_bot/pkg/errors"
	"telegram_booking_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminChatID int64 = 6013591658

type sentMessage struct {
	ChatID int64
	Text   string
	Markup tgmodels.ReplyMarkup
}

// fakeMessenger запоминает отправленные сообщения
type fakeMessenger struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn map[int64]bool
}

func (m *fakeMessenger) SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*tgmodels.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	chatID, _ := params.ChatID.(int64)
	if m.failOn[chatID] {
		return nil, stderrors.New("Forbidden: bot was blocked by the user")
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: params.Text, Markup: params.ReplyMarkup})
	return &tgmodels.Message{ID: len(m.sent)}, nil
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// countingStore считает обращения к хранилищу
type countingStore struct {
	storage.AppointmentRepository
	mu    sync.Mutex
	calls int
}

func (s *countingStore) IsSlotTaken(ctx context.Context, masterID int64, date, slotTime string) (bool, error) {
	s.inc()
	return s.AppointmentRepository.IsSlotTaken(ctx, masterID, date, slotTime)
}

func (s *countingStore) CreateAppointment(ctx context.Context, appt *models.Appointment) (int64, error) {
	s.inc()
	return s.AppointmentRepository.CreateAppointment(ctx, appt)
}

func (s *countingStore) inc() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() *config.Config {
	return &config.Config{
		Booking: config.BookingConfig{
			AdminChatID:  adminChatID,
			WebAppURL:    "https://example.com/app",
			ShopName:     "THE KINGS BARBERSHOP",
			HistoryLimit: 5,
		},
	}
}

func setupService(t *testing.T) (*Service, *fakeMessenger, *countingStore) {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &countingStore{AppointmentRepository: db}
	messenger := &fakeMessenger{failOn: map[int64]bool{}}

	return NewService(messenger, store, testConfig(), logger.Nop()), messenger, store
}

var client = booking.Sender{ID: 777, FirstName: "Alisher", LastName: "Karimov", Username: "alisher"}

const validPayload = `{
	"name": "Алишер",
	"phone": "+998 90 123 45 67",
	"master_id": "1",
	"master_name": "Aziz",
	"date": "2024-05-01",
	"time": "10:00",
	"services": [{"name": "Стрижка", "price": 60000, "duration": 45}, {"name": "Борода", "price": "40 000", "duration": 20}],
	"comment": "<b>без спешки</b>"
}`

func TestSubmitBooking_Success(t *testing.T) {
	svc, messenger, store := setupService(t)
	ctx := context.Background()

	appt, err := svc.SubmitBooking(ctx, client.ID, validPayload, client)
	require.NoError(t, err)

	assert.Equal(t, int64(1), appt.ID)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, 100000, appt.TotalPrice)
	assert.Equal(t, 65, appt.DurationMin)
	assert.Equal(t, 2, store.Calls(), "one existence check and one insert")

	sent := messenger.messages()
	require.Len(t, sent, 2)

	assert.Equal(t, adminChatID, sent[0].ChatID, "admin is notified first")
	assert.Contains(t, sent[0].Text, "НОВАЯ ЗАПИСЬ")
	assert.Contains(t, sent[0].Text, "@alisher")
	assert.Contains(t, sent[0].Text, "&lt;b&gt;без спешки&lt;/b&gt;")

	assert.Equal(t, client.ID, sent[1].ChatID)
	assert.True(t, strings.HasPrefix(sent[1].Text, "✅ <b>Ваша запись принята!</b>"))
	assert.Contains(t, sent[1].Text, "100 000 сум")

	stored, err := store.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(777), stored.UserID)
	assert.Contains(t, stored.ServicesJSON, "Стрижка")
}

func TestSubmitBooking_IncompleteMakesNoStoreCalls(t *testing.T) {
	svc, messenger, store := setupService(t)

	payloads := []string{
		`{"master_id": 0, "date": "2024-05-01", "time": "10:00"}`,
		`{"master_id": 1, "date": "", "time": "10:00"}`,
		`{"master_id": 1, "date": "2024-05-01"}`,
		`not json at all`,
		`[1, 2, 3]`,
		`{"master_id":1,"date":"2024-05-01","time":"10:00"}}} <garbage>`,
	}

	for _, raw := range payloads {
		appt, err := svc.SubmitBooking(context.Background(), client.ID, raw, client)
		assert.Nil(t, appt)
		assert.True(t, stderrors.Is(err, errors.ErrIncompleteBooking), "payload %s: %v", raw, err)
	}

	assert.Zero(t, store.Calls())
	assert.Empty(t, messenger.messages())
}

func TestSubmitBooking_SlotTaken(t *testing.T) {
	svc, messenger, store := setupService(t)
	ctx := context.Background()

	_, err := svc.SubmitBooking(ctx, client.ID, validPayload, client)
	require.NoError(t, err)

	other := booking.Sender{ID: 888, FirstName: "Bobur"}
	appt, err := svc.SubmitBooking(ctx, other.ID, validPayload, other)
	assert.Nil(t, appt)
	assert.True(t, stderrors.Is(err, errors.ErrSlotTaken))

	assert.Equal(t, 3, store.Calls(), "second attempt stops after the existence check")
	assert.Len(t, messenger.messages(), 2, "no notifications for the rejected booking")
}

func TestSubmitBooking_StorageFailure(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	messenger := &fakeMessenger{}
	svc := NewService(messenger, db, testConfig(), logger.Nop())

	appt, err := svc.SubmitBooking(context.Background(), client.ID, validPayload, client)
	assert.Nil(t, appt)
	assert.True(t, stderrors.Is(err, errors.ErrDatabase))
	assert.Empty(t, messenger.messages(), "failed booking is never reported as success")
}

func TestSubmitBooking_NotificationFailureKeepsAppointment(t *testing.T) {
	svc, messenger, _ := setupService(t)
	messenger.failOn[adminChatID] = true

	appt, err := svc.SubmitBooking(context.Background(), client.ID, validPayload, client)
	require.NoError(t, err)
	require.NotNil(t, appt)

	sent := messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, client.ID, sent[0].ChatID, "client still gets a confirmation")
}

func TestSendWelcome(t *testing.T) {
	svc, messenger, _ := setupService(t)

	require.NoError(t, svc.SendWelcome(context.Background(), client.ID))

	sent := messenger.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "THE KINGS BARBERSHOP")

	kb, ok := sent[0].Markup.(*tgmodels.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, kb.Keyboard[0][0].WebApp)
	assert.Equal(t, "https://example.com/app", kb.Keyboard[0][0].WebApp.URL)
}

func TestSendMessage_InvalidChat(t *testing.T) {
	svc, messenger, _ := setupService(t)

	err := svc.SendSimpleMessage(context.Background(), 0, "hi")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidChatID))
	assert.Empty(t, messenger.messages())
}

func TestUserAppointments(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.SubmitBooking(ctx, client.ID, validPayload, client)
	require.NoError(t, err)
	_, err = svc.SubmitBooking(ctx, client.ID, strings.Replace(validPayload, "10:00", "11:00", 1), client)
	require.NoError(t, err)

	appts, err := svc.UserAppointments(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "11:00", appts[0].Time, "newest first")

	appts, err = svc.UserAppointments(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, appts)
}
