package notify

import (
	"fmt"

	"openclaw/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram — пассивный нотифайер: только шлёт сообщения в чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("[NOTIFY] telegram send failed: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }
