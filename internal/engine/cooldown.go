package engine

import (
	"sync"
	"time"
)

// Cooldown — последний диспатч по инструменту. Живёт в памяти процесса,
// на рестарте сбрасывается. Внешние сигналы его обходят.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	til    map[string]time.Time // symbol -> until
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		til:    make(map[string]time.Time),
	}
}

func (c *Cooldown) OnCooldown(symbol string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.til[symbol]
	return ok && now.Before(until)
}

func (c *Cooldown) MarkDispatched(symbol string, now time.Time) {
	c.mu.Lock()
	c.til[symbol] = now.Add(c.window)
	c.mu.Unlock()
}
