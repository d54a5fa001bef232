// Package config defines the JSON configuration model for a pipeline run and
// the defaults that reproduce the stock "largest banks" job.
//
// Example (every key optional; missing keys keep Default values):
//
//	{
//	  "job":     "largest_banks",
//	  "source":  { "kind": "http", "url": "https://...", "timeout_seconds": 30,
//	               "options": { "headers": { "Accept-Language": "en" } } },
//	  "parser":  { "columns": ["Name", "MC_USD_Billion"], "skip_malformed": false },
//	  "transform": { "rates_path": "exchange_rate.csv" },
//	  "output":  { "csv_path": "Largest_banks_data.csv", "xlsx_path": "" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "Banks.db", "table": "Largest_banks" } },
//	  "log":     { "path": "code_log.txt" }
//	}
package config

import (
	"encoding/json"
	"time"

	"banketl/internal/bank"
)

// Defaults for the stock job.
const (
	DefaultJob       = "largest_banks"
	DefaultURL       = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"
	DefaultRatesPath = "exchange_rate.csv"
	DefaultCSVPath   = "Largest_banks_data.csv"
	DefaultDSN       = "Banks.db"
	DefaultTable     = "Largest_banks"
	DefaultLogPath   = "code_log.txt"
	DefaultTimeout   = 30
)

// Pipeline is the top-level configuration object.
type Pipeline struct {
	// Job names the run in metrics and diagnostic logs.
	Job string `json:"job"`

	Source    Source    `json:"source"`
	Parser    Parser    `json:"parser"`
	Transform Transform `json:"transform"`
	Output    Output    `json:"output"`
	Storage   Storage   `json:"storage"`
	Log       Log       `json:"log"`
}

// Source says where the page comes from.
type Source struct {
	// Kind is "http" (download URL) or "file" (read a saved copy at Path).
	Kind string `json:"kind"`
	URL  string `json:"url"`
	Path string `json:"path"`

	TimeoutSeconds     int    `json:"timeout_seconds"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	UserAgent          string `json:"user_agent"`

	// Options holds extra source settings. Recognized keys:
	//   headers (object of string): added to the HTTP request
	Options Options `json:"options"`
}

// Timeout returns TimeoutSeconds as a duration.
func (s Source) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Parser configures table extraction.
type Parser struct {
	// Columns names the extracted columns; only ["Name","MC_USD_Billion"] is
	// supported.
	Columns []string `json:"columns"`

	// SkipMalformed drops rows that cannot be read instead of failing the run.
	SkipMalformed bool `json:"skip_malformed"`
}

// Transform configures currency conversion.
type Transform struct {
	RatesPath string `json:"rates_path"`
}

// Output configures the flat-file outputs.
type Output struct {
	CSVPath string `json:"csv_path"`
	// XLSXPath enables the workbook export when non-empty.
	XLSXPath string `json:"xlsx_path"`
}

// Storage selects the database sink.
type Storage struct {
	// Kind is a registered storage kind: "sqlite", "postgres" or "mssql".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the database connection and target table.
type DBConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// Log configures the progress log file.
type Log struct {
	Path string `json:"path"`
}

// Default returns the configuration of the stock job.
func Default() Pipeline {
	return Pipeline{
		Job: DefaultJob,
		Source: Source{
			Kind:           "http",
			URL:            DefaultURL,
			TimeoutSeconds: DefaultTimeout,
			Options:        Options{},
		},
		Parser: Parser{
			Columns: append([]string(nil), bank.ExtractColumns...),
		},
		Transform: Transform{RatesPath: DefaultRatesPath},
		Output:    Output{CSVPath: DefaultCSVPath},
		Storage: Storage{
			Kind: "sqlite",
			DB:   DBConfig{DSN: DefaultDSN, Table: DefaultTable},
		},
		Log: Log{Path: DefaultLogPath},
	}
}

// Options is a small helper to fetch typed values from free-form JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// which is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object.
// Non-string values are ignored. Returns an empty map when the key is missing
// or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		case map[string]string:
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
