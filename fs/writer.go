// Package fs provides file-based export of scraping results.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/dirscrape"
)

// Ensure Writer implements dirscrape.SessionWriter at compile time.
var _ dirscrape.SessionWriter = (*Writer)(nil)

// Writer writes a session's records as a JSON array file.
type Writer struct {
	path string
}

// NewWriter creates a new Writer that writes to the given path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteSession writes the session's records to the configured path as a
// JSON array, the same shape a run prints to stdout. The document is
// written to a temporary sibling and renamed into place, so readers
// never observe a partial file.
func (w *Writer) WriteSession(ctx context.Context, session *dirscrape.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	records := session.Records
	if records == nil {
		records = []*dirscrape.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, w.path)
}
