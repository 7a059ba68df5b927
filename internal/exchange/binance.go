package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/time/rate"
)

// Client — спотовый Binance REST с HMAC-подписью.
// Лимитер держит нас ниже веса биржи, чтобы не ловить 429.
type Client struct {
	http    *http.Client
	baseURL string
	quote   string

	apiKey    string
	apiSecret string

	limiter *rate.Limiter
}

func NewClient(baseURL, quoteAsset string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		quote:   quoteAsset,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
}

func (c *Client) SetCreds(key, secret string) { c.apiKey, c.apiSecret = key, secret }

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// doSigned выполняет подписанный запрос и декодирует ответ в out.
func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values, out any) error {
	if c.apiKey == "" || c.apiSecret == "" {
		return fmt.Errorf("api keys are not set")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")
	query := params.Encode()
	query += "&signature=" + c.sign(query)

	var reqURL string
	var body io.Reader
	if method == http.MethodGet {
		reqURL = c.baseURL + path + "?" + query
	} else {
		reqURL = c.baseURL + path
		body = strings.NewReader(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = sonic.Unmarshal(data, &apiErr)
		return fmt.Errorf("binance %s: status %d code=%d msg=%s", path, resp.StatusCode, apiErr.Code, apiErr.Msg)
	}

	if out == nil {
		return nil
	}
	return sonic.Unmarshal(data, out)
}
