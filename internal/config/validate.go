package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"banketl/internal/bank"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config, e.g. "storage.db.table".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be returned as one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownStorage lists the kinds storage/all registers.
var knownStorage = []string{"sqlite", "postgres", "mssql"}

// ValidatePipeline lints p without mutating it.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{SeverityError, "job", "job must not be empty; it labels metrics and logs"})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateOutputs(p)...)
	issues = append(issues, validateStorage(p.Storage)...)
	return issues
}

// HasErrors reports whether issues contains at least one error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "http":
		u, err := url.Parse(s.URL)
		switch {
		case strings.TrimSpace(s.URL) == "":
			issues = append(issues, Issue{SeverityError, "source.url", "http source requires a url"})
		case err != nil:
			issues = append(issues, Issue{SeverityError, "source.url", fmt.Sprintf("invalid url: %v", err)})
		case u.Scheme != "http" && u.Scheme != "https":
			issues = append(issues, Issue{SeverityError, "source.url", fmt.Sprintf("unsupported scheme %q", u.Scheme)})
		case u.Host == "":
			issues = append(issues, Issue{SeverityError, "source.url", "url has no host"})
		}
		if s.InsecureSkipVerify {
			issues = append(issues, Issue{SeverityWarning, "source.insecure_skip_verify", "TLS certificate verification is disabled"})
		}
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.path", "file source requires a path"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q (want http or file)", s.Kind)})
	}

	if s.TimeoutSeconds < 0 {
		issues = append(issues, Issue{SeverityError, "source.timeout_seconds", "timeout must not be negative"})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	if !slices.Equal(p.Columns, bank.ExtractColumns) {
		return []Issue{{SeverityError, "parser.columns", fmt.Sprintf("columns %v not supported, want %v", p.Columns, bank.ExtractColumns)}}
	}
	if p.SkipMalformed {
		return []Issue{{SeverityWarning, "parser.skip_malformed", "malformed rows will be dropped instead of failing the run"}}
	}
	return nil
}

func validateOutputs(p Pipeline) []Issue {
	var issues []Issue
	required := []struct{ path, val string }{
		{"transform.rates_path", p.Transform.RatesPath},
		{"output.csv_path", p.Output.CSVPath},
		{"log.path", p.Log.Path},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			issues = append(issues, Issue{SeverityError, r.path, "must not be empty"})
		}
	}
	if x := p.Output.XLSXPath; x != "" && !strings.EqualFold(filepath.Ext(x), ".xlsx") {
		issues = append(issues, Issue{SeverityWarning, "output.xlsx_path", fmt.Sprintf("%q does not end in .xlsx", x)})
	}
	if p.Output.CSVPath != "" && p.Output.CSVPath == p.Log.Path {
		issues = append(issues, Issue{SeverityError, "output.csv_path", "csv output and progress log must be different files"})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if !slices.Contains(knownStorage, kind) {
		issues = append(issues, Issue{SeverityError, "storage.kind", fmt.Sprintf("unknown storage kind %q (want one of %v)", s.Kind, knownStorage)})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.table", "table must not be empty"})
	}
	if kind != "sqlite" && strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", fmt.Sprintf("%s storage requires a dsn", kind)})
	}
	return issues
}
