package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_LastPrice(t *testing.T) {
	s := NewStream("", nil)

	_, ok := s.LastPrice("BTCUSDT")
	assert.False(t, ok)

	s.setPrice("BTCUSDT", 42000.5)
	p, ok := s.LastPrice("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 42000.5, p, 1e-9)

	// нулевая цена не считается валидной
	s.setPrice("ETHUSDT", 0)
	_, ok = s.LastPrice("ETHUSDT")
	assert.False(t, ok)
}

func TestStream_ReadsMiniTickerFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "btcusdt@miniTicker")

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		frames := []string{
			`{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"42123.45"}}`,
			`{"data":{"s":"","c":"1"}}`, // мусорный фрейм без символа
			`not-json`,
		}
		for _, f := range frames {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewStream("ws"+strings.TrimPrefix(srv.URL, "http"), []string{"BTCUSDT"})
	go s.Run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		if p, ok := s.LastPrice("BTCUSDT"); ok {
			assert.InDelta(t, 42123.45, p, 1e-9)
			return
		}
		select {
		case <-deadline:
			t.Fatal("price never arrived from stream")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
