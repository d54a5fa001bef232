// Package etlerr defines the error kinds surfaced by a pipeline run.
//
// Every failure that leaves a stage is one of five kinds. A kind is carried by
// *Error and matched with errors.Is against the exported sentinels:
//
//	if errors.Is(err, etlerr.ErrNetwork) { ... }
//
// Errors are created through Wrap/Wrapf/Newf, which attach a stack trace via
// github.com/pkg/errors; printing with %+v shows it.
package etlerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. None of them are retried; all are fatal to the run.
var (
	// ErrNetwork: the page could not be fetched (transport failure or non-2xx).
	ErrNetwork = errors.New("network error")
	// ErrParse: the page structure does not match what the extractor expects.
	ErrParse = errors.New("parse error")
	// ErrFormat: a scraped or configured value is not numeric.
	ErrFormat = errors.New("format error")
	// ErrConfig: configuration or reference data is missing or inconsistent.
	ErrConfig = errors.New("config error")
	// ErrIO: a file or database read/write failed.
	ErrIO = errors.New("io error")
)

var kindNames = map[error]string{
	ErrNetwork: "NetworkError",
	ErrParse:   "ParseError",
	ErrFormat:  "FormatError",
	ErrConfig:  "ConfigError",
	ErrIO:      "IOError",
}

// Error associates an operation and an underlying cause with a kind.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// Unwrap returns the underlying cause so errors.Is/As can see through it.
func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err tagged with kind and op. A nil err yields nil.
func Wrap(kind, err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Op: op, Err: err})
}

// Wrapf is Wrap with a formatted op.
func Wrapf(kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Op: fmt.Sprintf(format, args...), Err: err})
}

// Newf creates an error of the given kind without an underlying cause.
func Newf(kind error, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Op: fmt.Sprintf(format, args...)})
}

// KindOf returns the kind sentinel carried by err, or nil when err has none.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// Kind returns the taxonomy name of err ("NetworkError", "ParseError", ...),
// or "Error" when err carries no kind.
func Kind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if name, ok := kindNames[e.Kind]; ok {
			return name
		}
	}
	return "Error"
}
