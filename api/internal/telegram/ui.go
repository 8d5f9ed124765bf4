package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const cbSpeak = "speak"

// Кнопка озвучки последнего ответа
func makeSpeakKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("🔊 Озвучити", cbSpeak)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

const helpText = `Я допомагаю з домашнім завданням.

/books — список підручників
/task <книга> <номер> [сторінка] — знайти завдання і пояснити
/engine [назва] — OCR-рушій для фото
/health — стан сервісу

Можна просто написати питання або надіслати фото завдання.`
