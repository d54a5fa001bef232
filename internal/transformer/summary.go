package transformer

import (
	"github.com/montanaflynn/stats"

	"banketl/internal/bank"
)

// Summary describes a transformed table; the driver logs it after the
// transform stage.
type Summary struct {
	Rows      int
	MeanUSD   float64
	MedianUSD float64
	MeanGBP   float64
	MaxUSD    float64
}

// Summarize computes Summary over t. An empty table yields a zero Summary.
func Summarize(t *bank.Table) Summary {
	s := Summary{Rows: t.Len()}
	if s.Rows == 0 {
		return s
	}
	usd := stats.Float64Data(t.Column(bank.CurrencyUSD))
	gbp := stats.Float64Data(t.Column("GBP"))

	s.MeanUSD, _ = usd.Mean()
	s.MedianUSD, _ = usd.Median()
	s.MaxUSD, _ = usd.Max()
	s.MeanGBP, _ = gbp.Mean()
	return s
}
