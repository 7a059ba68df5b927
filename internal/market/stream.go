package market

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"openclaw/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Stream держит кэш последних цен по вотчлисту через miniTicker-стрим.
// Используется для бэкфилла цены внешних сигналов, чтобы не ходить за
// однойминутной свечой на каждый сигнал.
type Stream struct {
	dialer  *websocket.Dialer
	baseURL string
	symbols []string

	mu     sync.RWMutex
	prices map[string]float64
}

func NewStream(baseURL string, symbols []string) *Stream {
	return &Stream{
		dialer:  &websocket.Dialer{},
		baseURL: baseURL,
		symbols: symbols,
		prices:  make(map[string]float64),
	}
}

func (s *Stream) LastPrice(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok && p > 0
}

func (s *Stream) setPrice(symbol string, price float64) {
	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

// Run — реконнект-цикл, живёт до отмены контекста.
func (s *Stream) Run(ctx context.Context) {
	streams := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		streams = append(streams, strings.ToLower(sym)+"@miniTicker")
	}
	url := s.baseURL + "?streams=" + strings.Join(streams, "/")

	retry := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := s.dialer.DialContext(ctx, url, nil)
		if err != nil {
			retry++
			if retry > 8 {
				logger.Error("[STREAM] giving up after %d retries: %v", retry, err)
				return
			}
			time.Sleep(time.Duration(300*retry) * time.Millisecond)
			continue
		}
		retry = 0
		logger.Info("[STREAM] connected, %d symbols", len(s.symbols))

		s.readLoop(ctx, conn)
		_ = conn.Close()

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(time.Second)
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("[STREAM] read: %v", err)
			return
		}

		var frame struct {
			Data struct {
				Symbol string `json:"s"`
				Close  string `json:"c"`
			} `json:"data"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Data.Symbol == "" {
			continue
		}
		if px, err := strconv.ParseFloat(frame.Data.Close, 64); err == nil && px > 0 {
			s.setPrice(frame.Data.Symbol, px)
		}
	}
}
