package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier — уведомления в опс-чат: новые регистрации и сбои
// доставки SMS. Необязательный: без токена все методы — no-op.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(botToken string, chatID int64) *TelegramNotifier {
	if botToken == "" || chatID == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg][init] bot unavailable, notifications disabled: %v", err)
		return nil
	}
	log.Printf("[tg][init] ok: bot=%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (t *TelegramNotifier) NotifyNewUser(phone string) {
	t.send(fmt.Sprintf("Новый пользователь: +%s", phone))
}

func (t *TelegramNotifier) NotifyDeliveryFailure(phone string, cause error) {
	t.send(fmt.Sprintf("Не удалось отправить SMS на +%s: %v", phone, cause))
}

func (t *TelegramNotifier) send(text string) {
	if t == nil || t.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][send] failed: %v", err)
	}
}
