// Package file implements a local filesystem-backed data source, used to run
// the pipeline against a saved copy of the page.
package file

import (
	"context"
	"io"
	"os"

	"banketl/internal/etlerr"
)

// Local is a filesystem data source that opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading.
//
// A canceled context is returned as-is without touching the filesystem.
// Filesystem errors, from Open and from reads, are tagged etlerr.ErrIO and
// still satisfy errors.Is(err, os.ErrNotExist) and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrIO, err, "open %s", l.path)
	}
	return &fileReader{f: f}, nil
}

// fileReader tags read errors etlerr.ErrIO so callers can tell a failing
// disk from a failing network source.
type fileReader struct {
	f *os.File
}

func (r *fileReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil && err != io.EOF {
		err = etlerr.Wrapf(etlerr.ErrIO, err, "read %s", r.f.Name())
	}
	return n, err
}

func (r *fileReader) Close() error { return r.f.Close() }
