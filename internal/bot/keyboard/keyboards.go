package keyboard

import (
	"github.com/go-telegram/bot/models"
)

// CreateWebAppKeyboard создает клавиатуру с кнопкой открытия WebApp
func CreateWebAppKeyboard(url, text string) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{
				{
					Text:   text,
					WebApp: &models.WebAppInfo{URL: url},
				},
			},
		},
		ResizeKeyboard: true,
	}
}
