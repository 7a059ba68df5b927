package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openclaw/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

const klinesFixture = `[
  [1700000000000, "42000.1", "42500.5", "41800.0", "42300.9", "120.5", 1700003599999],
  [1700003600000, "42300.9", "42700.0", "42100.2", "42650.4", "98.1", 1700007199999]
]`

func TestParseKlines(t *testing.T) {
	candles, err := ParseKlines([]byte(klinesFixture))
	require.NoError(t, err)
	require.Len(t, candles, 2)

	c := candles[0]
	assert.InDelta(t, 42000.1, c.Open, 1e-9)
	assert.InDelta(t, 42500.5, c.High, 1e-9)
	assert.InDelta(t, 41800.0, c.Low, 1e-9)
	assert.InDelta(t, 42300.9, c.Close, 1e-9)
	assert.InDelta(t, 120.5, c.Volume, 1e-9)
	assert.Equal(t, time.UnixMilli(1700000000000), c.OpenTime)
	assert.Equal(t, time.UnixMilli(1700003599999), c.CloseTime)
}

func TestParseKlines_NumericPrices(t *testing.T) {
	// прокси, отдающий числа вместо строк
	candles, err := ParseKlines([]byte(`[[1700000000000, 1.5, 2.5, 1.0, 2.0, 10.0, 1700003599999]]`))
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.InDelta(t, 2.0, candles[0].Close, 1e-9)
}

func TestParseKlines_ShortRowSkipped(t *testing.T) {
	candles, err := ParseKlines([]byte(`[[1700000000000, "1.0"]]`))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestParseKlines_Garbage(t *testing.T) {
	_, err := ParseKlines([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	assert.Error(t, err)
}

func TestClient_Candles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		w.Write([]byte(klinesFixture))
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, time.Second)
	candles, err := cl.Candles(context.Background(), "BTCUSDT", "1h", 200)
	require.NoError(t, err)
	assert.Len(t, candles, 2)
}

func TestClient_CandlesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, time.Second)
	_, err := cl.Candles(context.Background(), "BTCUSDT", "1h", 200)
	assert.Error(t, err)
}
