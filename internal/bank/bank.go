// Package bank holds the in-memory model a pipeline run passes between stages:
// the ordered table of banks scraped from the page and the exchange-rate table
// used to convert their market capitalisation.
package bank

import (
	"sort"

	"banketl/internal/etlerr"
)

// Column names, in table order.
const (
	ColName     = "Name"
	ColUSD      = "MC_USD_Billion"
	ColGBP      = "MC_GBP_Billion"
	ColEUR      = "MC_EUR_Billion"
	ColINR      = "MC_INR_Billion"
	CurrencyUSD = "USD"
)

// Currencies are the conversion targets, in column order.
var Currencies = []string{"GBP", "EUR", "INR"}

// ExtractColumns are the columns the extractor produces.
var ExtractColumns = []string{ColName, ColUSD}

// Row is one bank. Name and MarketCapUSD are set by the extractor; the
// transformer parses MarketCapUSD into USD and fills GBP, EUR and INR.
type Row struct {
	Name string
	// MarketCapUSD is the market cap text exactly as scraped.
	MarketCapUSD string

	USD float64
	GBP float64
	EUR float64
	INR float64
}

// Converted returns the converted value for a currency code in Currencies.
func (r Row) Converted(code string) (float64, bool) {
	switch code {
	case "GBP":
		return r.GBP, true
	case "EUR":
		return r.EUR, true
	case "INR":
		return r.INR, true
	case CurrencyUSD:
		return r.USD, true
	}
	return 0, false
}

// Table is the ordered collection of rows; order is page order.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Columns returns the full column list of a transformed table.
func (t *Table) Columns() []string {
	return []string{ColName, ColUSD, ColGBP, ColEUR, ColINR}
}

// Values returns rows aligned to Columns(), for storage backends.
func (t *Table) Values() [][]any {
	out := make([][]any, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, []any{r.Name, r.USD, r.GBP, r.EUR, r.INR})
	}
	return out
}

// Column returns the values of one monetary column in row order.
func (t *Table) Column(code string) []float64 {
	out := make([]float64, 0, t.Len())
	for _, r := range t.Rows {
		v, _ := r.Converted(code)
		out = append(out, v)
	}
	return out
}

// ExchangeRates maps a currency code to its multiplier against USD.
type ExchangeRates map[string]float64

// Rate returns the multiplier for code. A missing code is a config error.
func (x ExchangeRates) Rate(code string) (float64, error) {
	v, ok := x[code]
	if !ok {
		return 0, etlerr.Newf(etlerr.ErrConfig, "exchange rate for %q not found (have %v)", code, x.Codes())
	}
	return v, nil
}

// Codes returns the known currency codes, sorted.
func (x ExchangeRates) Codes() []string {
	out := make([]string, 0, len(x))
	for k := range x {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
