package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotError_IsMatchesByCode(t *testing.T) {
	err := ErrSlotTaken.WithContext(map[string]interface{}{"master_id": 1})

	assert.True(t, stderrors.Is(err, ErrSlotTaken))
	assert.False(t, stderrors.Is(err, ErrIncompleteBooking))
}

func TestBotError_WrappedCause(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")
	err := ErrDatabase.WithError(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "DATABASE: ошибка базы данных: disk I/O error", err.Error())
}

func TestGetBotError_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("submit booking: %w", ErrIncompleteBooking)

	botErr, ok := GetBotError(err)
	assert.True(t, ok)
	assert.Equal(t, "INCOMPLETE_BOOKING", botErr.Code)
	assert.Equal(t, "INCOMPLETE_BOOKING", Code(err))
	assert.Equal(t, "", Code(fmt.Errorf("plain")))
	assert.False(t, IsBotError(fmt.Errorf("plain")))
}
