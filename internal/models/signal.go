package models

// Side — направление сделки: "BUY"/"SELL".
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IndicatorSnapshot — срез индикаторов по инструменту на момент оценки.
// Собирается целиком или не собирается вовсе: скоринг не принимает
// частично заполненный снапшот.
type IndicatorSnapshot struct {
	Price      float64
	RSI        float64
	StochK     float64
	StochD     float64
	MACDHist   float64
	MACDSignal float64
	TrendEMA   float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	ADX        float64
}

// ScoredSignal — результат скоринга. Живёт один тик: создаётся скорером,
// потребляется координатором, не персистится.
type ScoredSignal struct {
	Symbol     string
	Direction  Side
	Score      int
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	Leverage   int

	Snapshot IndicatorSnapshot
}

// ExternalSignal — сигнал из внешнего источника (HTTP-поллинг или инжект
// через операторский эндпоинт). Поля price/tp/sl опциональны — координатор
// добирает их сам.
type ExternalSignal struct {
	ID     string  `json:"id,omitempty"`
	Symbol string  `json:"symbol"`
	Action string  `json:"action"`
	Price  float64 `json:"price,omitempty"`
	TP     float64 `json:"tp,omitempty"`
	SL     float64 `json:"sl,omitempty"`
}
