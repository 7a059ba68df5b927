package market

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"openclaw/internal/models"

	"github.com/bytedance/sonic"
)

// Poller опрашивает внешний источник сигналов по HTTP GET.
// Ответ — один объект или массив объектов {id?, symbol, action, ...}.
type Poller struct {
	http *http.Client
	url  string
}

func NewPoller(url string, timeout time.Duration) *Poller {
	return &Poller{
		http: &http.Client{Timeout: timeout},
		url:  url,
	}
}

// Poll: 404 и пустое тело — штатное "сигналов нет", не ошибка.
func (p *Poller) Poll(ctx context.Context) ([]models.ExternalSignal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signal poll: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseSignals(body)
}

func ParseSignals(body []byte) ([]models.ExternalSignal, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	if body[0] == '[' {
		var sigs []models.ExternalSignal
		if err := sonic.Unmarshal(body, &sigs); err != nil {
			return nil, fmt.Errorf("unmarshal signals: %w", err)
		}
		return sigs, nil
	}

	var sig models.ExternalSignal
	if err := sonic.Unmarshal(body, &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signal: %w", err)
	}
	return []models.ExternalSignal{sig}, nil
}
