// Package progress writes the operator-facing run log: one line per pipeline
// stage, appended to a plain text file in the form
//
//	2024-Jan-02-15:04:05 : Data saved to CSV file
//
// It is built on logrus with a formatter that renders exactly that line. The
// file is opened in append mode and never rotated. Unlike logrus' own error
// handling, a failed write is reported back to the caller, because a run whose
// progress cannot be recorded is treated as failed.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"banketl/internal/etlerr"
)

// TimestampLayout renders YYYY-Mon-DD-HH:MM:SS.
const TimestampLayout = "2006-Jan-02-15:04:05"

// Logger appends progress lines to a writer, usually a file.
type Logger struct {
	log *logrus.Logger
	out *errWriter
	now func() time.Time

	closer io.Closer
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// Open opens (or creates) path for appending and returns a Logger writing to it.
func Open(path string, opts ...Option) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrIO, err, "progress: open %s", path)
	}
	l := New(f, opts...)
	l.closer = f
	return l, nil
}

// New returns a Logger writing to w. The caller owns w.
func New(w io.Writer, opts ...Option) *Logger {
	ew := &errWriter{w: w}

	lg := logrus.New()
	lg.SetOutput(ew)
	lg.SetFormatter(lineFormatter{})
	lg.SetLevel(logrus.InfoLevel)

	l := &Logger{log: lg, out: ew, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log appends "<timestamp> : <message>".
func (l *Logger) Log(message string) error {
	return l.write(logrus.InfoLevel, message)
}

// Fail appends a failure line for stage.
func (l *Logger) Fail(stage string, cause error) error {
	return l.write(logrus.ErrorLevel, fmt.Sprintf("%s failed: %v", stage, cause))
}

// Close closes the underlying file when the Logger was created by Open.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

func (l *Logger) write(level logrus.Level, msg string) error {
	l.out.reset()
	l.log.WithTime(l.now()).Log(level, msg)
	if err := l.out.lastErr(); err != nil {
		return etlerr.Wrap(etlerr.ErrIO, err, "progress: write")
	}
	return nil
}

// lineFormatter renders "<timestamp> : <message>\n" and ignores level and fields.
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b := make([]byte, 0, len(TimestampLayout)+3+len(e.Message)+1)
	b = e.Time.AppendFormat(b, TimestampLayout)
	b = append(b, " : "...)
	b = append(b, e.Message...)
	b = append(b, '\n')
	return b, nil
}

// errWriter remembers the last write error so Log can return it.
type errWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.mu.Lock()
		e.err = err
		e.mu.Unlock()
	}
	return n, err
}

func (e *errWriter) reset() {
	e.mu.Lock()
	e.err = nil
	e.mu.Unlock()
}

func (e *errWriter) lastErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
