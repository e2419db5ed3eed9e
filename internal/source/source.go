// Package source fetches the document set to ingest into local files.
package source

import (
	"context"
	"errors"
	"os"
)

// ErrEmptyFolder is returned when a remote folder lists no files at all.
var ErrEmptyFolder = errors.New("source folder is empty")

// Source produces the files for one ingestion run.
type Source interface {
	Fetch(ctx context.Context) (*Batch, error)
	Name() string
}

// Batch is the set of local files produced by a Fetch, in ingestion order.
type Batch struct {
	Paths   []string
	Skipped []string // Names of entries that were not fetched.

	scratch string
}

// Cleanup removes any scratch directory the fetch created. Safe to call on
// a nil Batch and more than once.
func (b *Batch) Cleanup() error {
	if b == nil || b.scratch == "" {
		return nil
	}
	dir := b.scratch
	b.scratch = ""
	return os.RemoveAll(dir)
}
