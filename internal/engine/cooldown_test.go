package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldown_WindowBoundary(t *testing.T) {
	c := NewCooldown(time.Hour)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, c.OnCooldown("BTCUSDT", t0))

	c.MarkDispatched("BTCUSDT", t0)

	assert.True(t, c.OnCooldown("BTCUSDT", t0))
	assert.True(t, c.OnCooldown("BTCUSDT", t0.Add(time.Hour-time.Second)))
	assert.False(t, c.OnCooldown("BTCUSDT", t0.Add(time.Hour)))
	assert.False(t, c.OnCooldown("BTCUSDT", t0.Add(time.Hour+time.Second)))
}

func TestCooldown_PerSymbol(t *testing.T) {
	c := NewCooldown(time.Hour)
	t0 := time.Now()

	c.MarkDispatched("BTCUSDT", t0)

	assert.True(t, c.OnCooldown("BTCUSDT", t0))
	assert.False(t, c.OnCooldown("ETHUSDT", t0))
}

func TestCooldown_RemarkExtendsWindow(t *testing.T) {
	c := NewCooldown(time.Hour)
	t0 := time.Now()

	c.MarkDispatched("BTCUSDT", t0)
	c.MarkDispatched("BTCUSDT", t0.Add(30*time.Minute))

	assert.True(t, c.OnCooldown("BTCUSDT", t0.Add(80*time.Minute)))
}
