package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"redistics/internal/model"
)

// JSONLWriter appends monitor events to a timestamped file, one JSON
// object per line.
type JSONLWriter struct {
	file *os.File
	buf  *bufio.Writer
}

// NewJSONLWriter opens a fresh archive file under dir.
func NewJSONLWriter(dir string) (model.ArchiveWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	name := fmt.Sprintf("monitor_%s.jsonl", time.Now().Format("2006-01-02_15-04-05"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	return &JSONLWriter{file: f, buf: bufio.NewWriter(f)}, nil
}

// WriteEvents appends one batch and flushes it to disk.
func (w *JSONLWriter) WriteEvents(events []model.MonitorEvent) error {
	enc := json.NewEncoder(w.buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *JSONLWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
