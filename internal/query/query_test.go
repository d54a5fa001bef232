package query

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"

	"banketl/internal/ddl"
	"banketl/internal/etlerr"
	"banketl/internal/storage"
	_ "banketl/internal/storage/sqlite"
)

type stubQuerier struct {
	rs  *storage.ResultSet
	err error
}

func (s stubQuerier) Query(context.Context, string) (*storage.ResultSet, error) {
	return s.rs, s.err
}

func TestRunPrintsStatementAndTable(t *testing.T) {
	t.Parallel()
	q := stubQuerier{rs: &storage.ResultSet{
		Columns: []string{"Name", "MC_USD_Billion"},
		Rows: [][]any{
			{"JPMorgan Chase", 432.92},
			{"ICBC", 194.56},
		},
	}}

	var buf bytes.Buffer
	rs, err := Run(context.Background(), q, "SELECT * FROM Largest_banks", &buf)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())

	want := strings.Join([]string{
		"SELECT * FROM Largest_banks",
		"               Name  MC_USD_Billion",
		"  0  JPMorgan Chase          432.92",
		"  1            ICBC          194.56",
	}, "\n") + "\n"
	require.Equal(t, want, buf.String())
}

func TestRunQueryError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	_, err := Run(context.Background(), stubQuerier{err: errors.New("no such table")}, "SELECT 1", &buf)
	require.Error(t, err)
	require.True(t, errors.Is(err, etlerr.ErrIO))
	require.Equal(t, "SELECT 1\n", buf.String())
}

func TestPrintEmpty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, &storage.ResultSet{Columns: []string{"Name"}}))
	require.Contains(t, buf.String(), "Empty result")
}

func TestFormatValue(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{"x", "x"},
		{[]byte("y"), "y"},
		{151.98666666666668, "151.98666666666668"},
		{int64(3), "3"},
		{true, "true"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatValue(c.in))
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()
	one := func(v any) *storage.ResultSet { return &storage.ResultSet{Columns: []string{"v"}, Rows: [][]any{{v}}} }

	ok := []struct {
		in   any
		want float64
	}{
		{2.5, 2.5},
		{float32(2.5), 2.5},
		{int64(2), 2},
		{int32(2), 2},
		{"2.5", 2.5},
		{[]byte(" 2.5 "), 2.5},
	}
	for _, c := range ok {
		got, err := Scalar(one(c.in))
		require.NoError(t, err, "%T", c.in)
		require.Equal(t, c.want, got)
	}

	for _, rs := range []*storage.ResultSet{nil, {}, one(nil), one("abc"), one(struct{}{})} {
		_, err := Scalar(rs)
		require.Error(t, err)
		require.True(t, errors.Is(err, etlerr.ErrFormat))
	}
}

// TestAverageMatchesIndependentMean loads a table into SQLite and checks the
// database AVG against a mean computed in Go.
func TestAverageMatchesIndependentMean(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{
		Kind:  "sqlite",
		DSN:   filepath.Join(t.TempDir(), "Banks.db"),
		Table: "Largest_banks",
	})
	require.NoError(t, err)
	defer repo.Close()

	gbp := []float64{346.34, 185.22, 155.65, 128.54, 126.33, 124.7, 117.64, 110.36, 106.37, 102.67}
	rows := make([][]any, len(gbp))
	for i, v := range gbp {
		rows[i] = []any{"Bank", v * 1.25, v, v * 1.1625, v * 103.6875}
	}
	_, err = storage.ReplaceTable(ctx, "sqlite", repo, ddl.BankTable("Largest_banks"), rows)
	require.NoError(t, err)

	var out bytes.Buffer
	all, err := Run(ctx, repo, "SELECT * FROM Largest_banks", &out)
	require.NoError(t, err)
	require.Equal(t, len(gbp), all.Len())

	out.Reset()
	rs, err := Run(ctx, repo, "SELECT AVG(MC_GBP_Billion) FROM Largest_banks", &out)
	require.NoError(t, err)
	avg, err := Scalar(rs)
	require.NoError(t, err)

	mean, err := stats.Mean(gbp)
	require.NoError(t, err)
	require.InDelta(t, mean, avg, 1e-9)
	require.True(t, strings.HasPrefix(out.String(), "SELECT AVG(MC_GBP_Billion) FROM Largest_banks\n"))
}
