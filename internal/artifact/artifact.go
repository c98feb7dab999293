// Package artifact writes the human-readable daily report file.
//
// One text file per day holds the day's prose reports. Files are written
// atomically (write .tmp then rename) so a concurrent reader never sees a
// partial document.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer deposits readable report files into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer targeting the given directory.
// The directory is created on first write if it does not exist.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Path returns the artifact path for the given day.
func (w *Writer) Path(day time.Time) string {
	return filepath.Join(w.dir, "readable_report_"+day.Format("2006-01-02")+".txt")
}

// Write replaces the artifact for the given day with content.
// Returns the path of the written file.
func (w *Writer) Write(day time.Time, content string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact: mkdir %s: %w", w.dir, err)
	}

	target := w.Path(day)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("artifact: write tmp: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("artifact: rename: %w", err)
	}

	return target, nil
}
