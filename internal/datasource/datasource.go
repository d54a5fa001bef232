// Package datasource defines where the page bytes come from. The pipeline only
// needs a single readable stream; the concrete source is either the HTTP
// fetcher (httpds) or a saved copy on disk (file).
package datasource

import (
	"context"
	"io"
)

// Source opens the raw page. Callers must close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
