// Package csv reads the exchange-rate reference file, a two-column CSV:
//
//	Currency,Rate
//	EUR,0.93
//	GBP,0.8
//	INR,82.95
//
// Columns are located by header name, so their order does not matter and
// extra columns are ignored.
package csv

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"banketl/internal/bank"
	"banketl/internal/etlerr"
)

// Header names of the rate file.
const (
	HeaderCurrency = "Currency"
	HeaderRate     = "Rate"
)

// LoadRates opens path and reads it with ReadRates.
func LoadRates(path string) (bank.ExchangeRates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrIO, err, "rates: open %s", path)
	}
	defer f.Close()
	return ReadRates(f)
}

// ReadRates parses a Currency,Rate CSV into an ExchangeRates map.
//
// A missing header column is an etlerr.ErrConfig; a malformed record or a
// non-numeric or non-finite rate is an etlerr.ErrFormat. A currency listed
// twice keeps its last rate.
func ReadRates(r io.Reader) (bank.ExchangeRates, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, etlerr.Newf(etlerr.ErrConfig, "rates: file is empty")
	}
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrFormat, err, "rates: read header")
	}
	header = StripHeaderBOM(header)

	ci, ri := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case HeaderCurrency:
			ci = i
		case HeaderRate:
			ri = i
		}
	}
	if ci < 0 || ri < 0 {
		return nil, etlerr.Newf(etlerr.ErrConfig, "rates: header %q must contain %q and %q", header, HeaderCurrency, HeaderRate)
	}
	width := max(ci, ri) + 1

	out := bank.ExchangeRates{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, etlerr.Wrap(etlerr.ErrFormat, err, "rates: read record")
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < width {
			return nil, etlerr.Newf(etlerr.ErrFormat, "rates: line %d: %d fields, want at least %d", line, len(rec), width)
		}

		code := strings.TrimSpace(rec[ci])
		raw := strings.TrimSpace(rec[ri])
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, etlerr.Wrapf(etlerr.ErrFormat, err, "rates: line %d: rate %q for %s", line, raw, code)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, etlerr.Newf(etlerr.ErrFormat, "rates: line %d: rate %q for %s is not a finite number", line, raw, code)
		}
		out[code] = rate
	}
	return out, nil
}
