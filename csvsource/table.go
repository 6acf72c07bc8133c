// Package csvsource implements spec.md's C6, CSV source repair: when the
// source medium is file, every object's CSV is inspected and repaired
// before the retrieval driver runs (header trim, value mapping, missing
// id synthesis, missing lookup id/__r reconciliation).
package csvsource

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/jfcote87/sfmigrate/progress"
)

// Table is one object's CSV, in-memory as ordered rows keyed by (trimmed)
// column name.
type Table struct {
	Object string
	Header []string
	Rows   []map[string]string
}

// ReadCSV loads path into a Table named object.
func ReadCSV(path, object string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &progress.FilesystemError{Path: path, Cause: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, &progress.FilesystemError{Path: path, Cause: err}
	}
	if len(records) == 0 {
		return &Table{Object: object}, nil
	}
	header := records[0]
	t := &Table{Object: object, Header: header}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV writes t to path, creating parent directories as needed (spec.md
// §4.6 "All repaired CSVs are written to a mirror of the source
// directory").
func WriteCSV(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &progress.FilesystemError{Path: path, Cause: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &progress.FilesystemError{Path: path, Cause: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return &progress.FilesystemError{Path: path, Cause: err}
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Header))
		for i, col := range t.Header {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return &progress.FilesystemError{Path: path, Cause: err}
		}
	}
	w.Flush()
	return w.Error()
}

// TrimHeader strips whitespace from every column name and rewrites rows
// under the trimmed keys (spec.md §4.6 step 1).
func TrimHeader(t *Table) {
	trimmed := make([]string, len(t.Header))
	changed := false
	for i, h := range t.Header {
		trimmed[i] = strings.TrimSpace(h)
		if trimmed[i] != h {
			changed = true
		}
	}
	if !changed {
		return
	}
	for _, row := range t.Rows {
		for i, h := range t.Header {
			if v, ok := row[h]; ok && trimmed[i] != h {
				row[trimmed[i]] = v
				delete(row, h)
			}
		}
	}
	t.Header = trimmed
}
