package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"openclaw/internal/models"

	"github.com/bytedance/sonic"
)

// Client тянет свечи с биржевого REST (формат klines Binance).
type Client struct {
	http *http.Client
	url  string
}

func NewClient(marketDataURL string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		url:  marketDataURL,
	}
}

// Candles возвращает свечи oldest first. Любая сетевая ошибка — это
// "данных нет", вызывающий скипает инструмент до следующего тика.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines %s: status %d", symbol, resp.StatusCode)
	}

	return ParseKlines(body)
}

// ParseKlines разбирает ответ klines:
// [[openTime, "open", "High", "low", "close", "volume", closeTime, ...], ...]
func ParseKlines(body []byte) ([]models.Candle, error) {
	var raw [][]any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		c := models.Candle{
			Open:   fnum(row[1]),
			High:   fnum(row[2]),
			Low:    fnum(row[3]),
			Close:  fnum(row[4]),
			Volume: fnum(row[5]),
		}
		if ms, ok := row[0].(float64); ok {
			c.OpenTime = time.UnixMilli(int64(ms))
		}
		if len(row) > 6 {
			if ms, ok := row[6].(float64); ok {
				c.CloseTime = time.UnixMilli(int64(ms))
			}
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// fnum: биржа отдаёт цены строками, но старые прокси иногда числами.
func fnum(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case float64:
		return t
	}
	return 0
}
