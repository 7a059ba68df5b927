package notify

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"openclaw/pkg/logger"

	"github.com/bytedance/sonic"
)

// Webhook постит уведомление в URL из конфига. Для discord.com собирает
// embed, для всего остального — плоский JSON {text}.
type Webhook struct {
	http *http.Client
	url  string
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		http: &http.Client{Timeout: timeout},
		url:  url,
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

func (w *Webhook) Send(msg string) {
	if w == nil || w.url == "" {
		return
	}

	var payload any
	if strings.Contains(w.url, "discord.com") {
		payload = map[string]any{
			"embeds": []discordEmbed{{
				Title:       "🐯 OpenClaw Trade Alert",
				Description: msg,
				Color:       colorFor(msg),
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
			}},
		}
	} else {
		payload = map[string]string{"text": msg}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		logger.Warn("[NOTIFY] webhook marshal: %v", err)
		return
	}

	resp, err := w.http.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Warn("[NOTIFY] webhook post failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Warn("[NOTIFY] webhook status %d", resp.StatusCode)
	}
}

func (w *Webhook) Sendf(format string, args ...any) { w.Send(fmt.Sprintf(format, args...)) }

func colorFor(msg string) int {
	switch {
	case strings.Contains(msg, "BUY"):
		return 3066993 // зелёный
	case strings.Contains(msg, "SELL"):
		return 15158332 // красный
	default:
		return 3447003
	}
}
