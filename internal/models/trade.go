package models

import "time"

type TradeStatus string

const (
	StatusOpen      TradeStatus = "OPEN"
	StatusClosed    TradeStatus = "CLOSED"
	StatusCancelled TradeStatus = "CANCELLED"
)

// Trade — персистентная сделка. Создаётся координатором после успешного
// исполнения, закрывается внешним событием, никогда не удаляется.
type Trade struct {
	ID         int64   `json:"id"`
	Symbol     string  `json:"symbol"`
	Direction  Side    `json:"direction"`
	EntryPrice float64 `json:"entryPrice"`
	Quantity   float64 `json:"quantity"`
	StopLoss   float64 `json:"stopLoss"`
	TakeProfit float64 `json:"takeProfit"`
	Score      int     `json:"score"`

	// Снапшот индикаторов на входе — для разбора полётов.
	RSI      float64 `json:"rsi"`
	MACDHist float64 `json:"macdHist"`
	StochK   float64 `json:"stochK"`
	StochD   float64 `json:"stochD"`

	Status     TradeStatus `json:"status"`
	ProfitLoss float64     `json:"profitLoss"`
	OpenedAt   time.Time   `json:"openedAt"`
}

// DailyRiskStats — дневная статистика риска, одна строка на UTC-дату.
// CumulativeLoss только растёт: убытки складываются и не неттингуются
// с прибылью. Это сознательно консервативный учёт.
type DailyRiskStats struct {
	Date           string // YYYY-MM-DD (UTC)
	CumulativeLoss float64
	TradeCount     int
}
