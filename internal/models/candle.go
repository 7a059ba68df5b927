package models

import "time"

// Candle — универсальная свеча (спот/фьючи), oldest first в сериях.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	OpenTime  time.Time
	CloseTime time.Time
}
