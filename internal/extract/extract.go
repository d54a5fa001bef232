// Package extract implements the first pipeline stage: read the page from a
// datasource and turn its bank table into a bank.Table.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/zeebo/xxh3"

	"banketl/internal/bank"
	"banketl/internal/datasource"
	"banketl/internal/etlerr"
	htmlparser "banketl/internal/parser/html"
)

// Options controls row handling; see htmlparser.TableOptions.
type Options = htmlparser.TableOptions

// Result describes the downloaded page.
type Result struct {
	// Bytes is the size of the page body.
	Bytes int
	// Digest is the xxh3 hash of the page body, logged so two runs can be
	// compared without keeping the page around.
	Digest uint64
}

// DigestHex renders Digest as 16 hex digits.
func (r Result) DigestHex() string { return fmt.Sprintf("%016x", r.Digest) }

// Extract opens src, reads the whole page and parses its first table.
//
// columns must be exactly bank.ExtractColumns ("Name", "MC_USD_Billion");
// anything else is an etlerr.ErrConfig because the parser only knows that
// shape. A body read failure keeps the kind the source tagged it with (file
// sources use io); untagged read errors are network errors.
func Extract(ctx context.Context, src datasource.Source, columns []string, opts Options) (*bank.Table, Result, error) {
	if !slices.Equal(columns, bank.ExtractColumns) {
		return nil, Result{}, etlerr.Newf(etlerr.ErrConfig, "extract: columns %v not supported, want %v", columns, bank.ExtractColumns)
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, Result{}, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		kind := etlerr.KindOf(err)
		if kind == nil {
			kind = etlerr.ErrNetwork
		}
		return nil, Result{}, etlerr.Wrap(kind, err, "extract: read page body")
	}
	res := Result{Bytes: len(body), Digest: xxh3.Hash(body)}

	rows, err := htmlparser.ParseBankTable(bytes.NewReader(body), opts)
	if err != nil {
		return nil, res, err
	}
	return &bank.Table{Rows: rows}, res, nil
}
