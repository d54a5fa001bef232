// Package export writes a transformed bank.Table to flat files: the CSV
// output file and, optionally, an XLSX workbook.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"banketl/internal/bank"
	"banketl/internal/etlerr"
)

// WriteCSV writes t to path, replacing any existing file. The first column
// is an unnamed 0-based row index:
//
//	,Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion,MC_INR_Billion
//	0,JPMorgan Chase,432.92,346.34,402.62,35910.71
func WriteCSV(t *bank.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return etlerr.Wrapf(etlerr.ErrIO, err, "export: create %s", path)
	}
	if err := EncodeCSV(f, t); err != nil {
		_ = f.Close()
		return etlerr.Wrapf(etlerr.ErrIO, err, "export: write %s", path)
	}
	if err := f.Close(); err != nil {
		return etlerr.Wrapf(etlerr.ErrIO, err, "export: close %s", path)
	}
	return nil
}

// EncodeCSV writes the CSV form of t to w.
func EncodeCSV(w io.Writer, t *bank.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, t.Columns()...)); err != nil {
		return err
	}
	for i, r := range t.Rows {
		rec := []string{
			strconv.Itoa(i),
			r.Name,
			FormatFloat(r.USD),
			FormatFloat(r.GBP),
			FormatFloat(r.EUR),
			FormatFloat(r.INR),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatFloat renders v in its shortest round-tripping form with at least
// one fractional digit: 8250 gives "8250.0", 432.92 gives "432.92".
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// ReadCSV reads a file written by WriteCSV back into a Table.
func ReadCSV(path string) (*bank.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrIO, err, "export: open %s", path)
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV parses the CSV form produced by EncodeCSV.
func DecodeCSV(r io.Reader) (*bank.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	header, err := cr.Read()
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrFormat, err, "export: read header")
	}
	want := append([]string{""}, (&bank.Table{}).Columns()...)
	for i := range want {
		if header[i] != want[i] {
			return nil, etlerr.Newf(etlerr.ErrFormat, "export: header %q, want %q", header, want)
		}
	}

	t := &bank.Table{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, etlerr.Wrap(etlerr.ErrFormat, err, "export: read record")
		}
		vals := make([]float64, 4)
		for j := range vals {
			v, err := strconv.ParseFloat(rec[2+j], 64)
			if err != nil {
				return nil, etlerr.Wrapf(etlerr.ErrFormat, err, "export: row %s column %s", rec[0], want[2+j])
			}
			vals[j] = v
		}
		t.Rows = append(t.Rows, bank.Row{
			Name:         rec[1],
			MarketCapUSD: rec[2],
			USD:          vals[0],
			GBP:          vals[1],
			EUR:          vals[2],
			INR:          vals[3],
		})
	}
}
