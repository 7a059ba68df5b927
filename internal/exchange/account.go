package exchange

import (
	"context"
	"net/http"
	"strconv"
)

type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

type AccountInfo struct {
	CanTrade bool      `json:"canTrade"`
	Balances []Balance `json:"balances"`
}

func (c *Client) Account(ctx context.Context) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.doSigned(ctx, http.MethodGet, "/api/v3/account", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Equity — свободный остаток котируемого актива (USDT).
// Это equity для расчёта размера позиции.
func (c *Client) Equity(ctx context.Context) (float64, error) {
	info, err := c.Account(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range info.Balances {
		if b.Asset != c.quote {
			continue
		}
		free, _ := strconv.ParseFloat(b.Free, 64)
		return free, nil
	}
	return 0, nil
}
