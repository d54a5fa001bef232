// Package transformer converts each bank's scraped USD market cap into the
// other currencies of the exchange-rate table.
//
// Transform works in place: the table passed in is the table returned, with
// USD parsed and GBP, EUR and INR filled for every row. Values are rounded to
// two decimal places, half away from zero, on the exact decimal product of
// the USD amount and the rate (see Round2).
package transformer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"banketl/internal/bank"
	"banketl/internal/etlerr"
	csvparser "banketl/internal/parser/csv"
)

// Places is the number of decimals kept in converted values.
const Places = 2

// TransformFile loads the rate table at ratesPath and applies Transform.
func TransformFile(t *bank.Table, ratesPath string) (*bank.Table, error) {
	rates, err := csvparser.LoadRates(ratesPath)
	if err != nil {
		return nil, err
	}
	return Transform(t, rates)
}

// Transform parses MarketCapUSD for every row and fills the converted
// columns. Every rate and every market cap is checked before any row is
// written, so on error the table is left unchanged.
func Transform(t *bank.Table, rates bank.ExchangeRates) (*bank.Table, error) {
	rs := make(map[string]float64, len(bank.Currencies))
	for _, code := range bank.Currencies {
		r, err := rates.Rate(code)
		if err != nil {
			return nil, err
		}
		if !finite(r) {
			return nil, etlerr.Newf(etlerr.ErrFormat, "transform: rate for %s is %v", code, r)
		}
		rs[code] = r
	}

	usd := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := ParseMarketCap(row.MarketCapUSD)
		if err != nil {
			return nil, etlerr.Wrapf(etlerr.ErrFormat, err, "transform: row %d (%s): market cap %q", i+1, row.Name, row.MarketCapUSD)
		}
		usd[i] = v
	}

	for i := range t.Rows {
		row := &t.Rows[i]
		row.USD = usd[i]
		row.GBP = Round2(usd[i], rs["GBP"])
		row.EUR = Round2(usd[i], rs["EUR"])
		row.INR = Round2(usd[i], rs["INR"])
	}
	return t, nil
}

// ParseMarketCap parses scraped market cap text such as "432.92" or
// "1,024.5". Surrounding whitespace and thousands separators are ignored.
// NaN and infinities are rejected.
func ParseMarketCap(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, fmt.Errorf("market cap %q is not a finite number", s)
	}
	return v, nil
}

// Round2 returns usd*rate rounded to Places decimals, half away from zero.
//
// The product is taken in decimal, not binary floating point, so a value
// that is exactly on a .005 boundary in decimal (e.g. 1.005) rounds up as
// written rather than according to its nearest float64. Non-finite inputs
// have no decimal form; their float product is returned unrounded.
func Round2(usd, rate float64) float64 {
	if !finite(usd) || !finite(rate) {
		return usd * rate
	}
	d := decimal.NewFromFloat(usd).Mul(decimal.NewFromFloat(rate)).Round(Places)
	f, _ := d.Float64()
	return f
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
