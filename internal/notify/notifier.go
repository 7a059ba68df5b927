package notify

import (
	"fmt"

	"openclaw/pkg/logger"
)

// Notifier — best-effort канал уведомлений о сделках.
// Ошибки отправки никогда не поднимаются к вызывающему.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Stdout — запасной нотифайер, когда ни вебхук, ни телеграм не настроены.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(msg string) { logger.Info("[NOTIFY] %s", msg) }

func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }

// Multi — веер по нескольким каналам.
type Multi struct {
	sinks []Notifier
}

func NewMulti(sinks ...Notifier) *Multi { return &Multi{sinks: sinks} }

func (m *Multi) Send(msg string) {
	for _, s := range m.sinks {
		s.Send(msg)
	}
}

func (m *Multi) Sendf(format string, args ...any) { m.Send(fmt.Sprintf(format, args...)) }
