package helper

import (
	"math"
	"strings"
	"time"
)

// DateUTC — ключ дневной статистики риска: календарная дата по UTC.
func DateUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func NormSide(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// RoundQty округляет количество под точность биржи по ценовому диапазону.
// Грубая сетка, но знак не переворачивает и вверх не округляет.
func RoundQty(qty, price float64) float64 {
	if qty <= 0 {
		return 0
	}
	switch {
	case price < 1:
		return math.Floor(qty)
	case price < 10:
		return roundTo(qty, 1)
	case price < 1000:
		return roundTo(qty, 2)
	default:
		return roundTo(qty, 3)
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Floor(v*p+1e-9) / p
}
