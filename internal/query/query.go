// Package query runs the pipeline's fixed SQL statements and prints their
// results to the console.
package query

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"banketl/internal/etlerr"
	"banketl/internal/storage"
)

// Querier is the read side of storage.Repository.
type Querier interface {
	Query(ctx context.Context, sql string) (*storage.ResultSet, error)
}

// Run prints sql, executes it, then prints the result as a right-aligned
// table with a leading 0-based row index:
//
//	SELECT AVG(MC_GBP_Billion) FROM Largest_banks
//	     AVG(MC_GBP_Billion)
//	  0              151.987
func Run(ctx context.Context, q Querier, sql string, w io.Writer) (*storage.ResultSet, error) {
	if _, err := fmt.Fprintln(w, sql); err != nil {
		return nil, etlerr.Wrap(etlerr.ErrIO, err, "query: print statement")
	}
	rs, err := q.Query(ctx, sql)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrIO, err, "query: %s", sql)
	}
	if err := Print(w, rs); err != nil {
		return nil, etlerr.Wrap(etlerr.ErrIO, err, "query: print result")
	}
	return rs, nil
}

// Print writes rs in the tabular form described on Run. A result with no
// rows prints "Empty result" under the header.
func Print(w io.Writer, rs *storage.ResultSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	cells := make([]string, 0, len(rs.Columns)+1)
	cells = append(cells, "")
	cells = append(cells, rs.Columns...)
	writeLine(tw, cells)

	for i, row := range rs.Rows {
		cells = cells[:0]
		cells = append(cells, strconv.Itoa(i))
		for _, v := range row {
			cells = append(cells, FormatValue(v))
		}
		writeLine(tw, cells)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rs.Len() == 0 {
		_, err := fmt.Fprintln(w, "Empty result")
		return err
	}
	return nil
}

func writeLine(tw *tabwriter.Writer, cells []string) {
	// tabwriter only aligns tab-terminated cells, so every cell gets one.
	fmt.Fprint(tw, strings.Join(cells, "\t")+"\t\n")
}

// FormatValue renders a driver value for display. NULL prints as "None".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// Scalar returns the single numeric value of a one-row, one-column result,
// such as an AVG.
func Scalar(rs *storage.ResultSet) (float64, error) {
	if rs == nil || rs.Len() != 1 || len(rs.Rows[0]) != 1 {
		return 0, etlerr.Newf(etlerr.ErrFormat, "query: expected a single value, got %d rows", rs.Len())
	}
	switch t := rs.Rows[0][0].(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case string:
		return parseScalar(t)
	case []byte:
		return parseScalar(string(t))
	case nil:
		return 0, etlerr.Newf(etlerr.ErrFormat, "query: value is NULL")
	default:
		return 0, etlerr.Newf(etlerr.ErrFormat, "query: unsupported value type %T", t)
	}
}

func parseScalar(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, etlerr.Wrap(etlerr.ErrFormat, err, "query: parse value")
	}
	return f, nil
}
