package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// Output precision. Internal arithmetic is full precision; rounding happens
// once, when figures leave the engine.
const (
	kwhPlaces   = 3
	moneyPlaces = 2
	pctPlaces   = 1
)

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func KWh(v float64) float64   { return round(v, kwhPlaces) }
func Money(v float64) float64 { return round(v, moneyPlaces) }
func Pct(v float64) float64   { return round(v, pctPlaces) }

func kwhSlice(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = KWh(v)
	}
	return out
}
