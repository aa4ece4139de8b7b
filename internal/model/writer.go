package model

// ArchiveWriter persists batches of monitor events. Implementations are
// expected to be safe for use from a single flusher goroutine.
type ArchiveWriter interface {
	WriteEvents(events []MonitorEvent) error
	Close() error
}
